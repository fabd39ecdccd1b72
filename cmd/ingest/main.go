// ingest 将本地文件直接写入向量索引，不经过 HTTP 服务
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	appRAG "github.com/axeltanjung/chatbot-rag/internal/application/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/config"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/document"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/embedding"
	applog "github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/tokenizer"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/vector"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	warn    = color.New(color.FgYellow).SprintFunc()
	fail    = color.New(color.FgRed, color.Bold).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	clearFirst := flag.Bool("clear", false, "clear the collection before ingesting")
	list := flag.Bool("list", false, "list indexed documents and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file or directory>...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load()
	applog.Init(&applog.Config{Level: "warn", Format: "console", Output: "stderr"})

	if err := run(*configPath, *clearFirst, *list, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, fail("error:"), err)
		os.Exit(1)
	}
}

func run(configPath string, clearFirst, list bool, paths []string) error {
	if !clearFirst && !list && len(paths) == 0 {
		flag.Usage()
		return errors.New("no input files")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := embedding.ProvideProvider(&cfg.Embedding)
	if err != nil {
		return err
	}
	defer closeProvider()

	index, closeIndex, err := vector.NewIndex(&cfg.Vector)
	if err != nil {
		return err
	}
	defer closeIndex()

	retry := appRAG.ProvideRetryPolicy(cfg)
	extractor := document.NewExtractor()
	service := appRAG.NewIngestService(
		appRAG.ProvideChunker(cfg),
		appRAG.ProvideBatchEmbedder(provider, retry, cfg),
		index,
		extractor,
		tokenizer.NewCounter(),
		nil,
		retry,
	)

	if clearFirst {
		if err := service.Clear(ctx); err != nil {
			return err
		}
		fmt.Println(warn("collection cleared"))
	}

	if list {
		return printDocuments(ctx, service)
	}

	files, err := collectFiles(paths, extractor)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		data, err := os.ReadFile(path)
		if err != nil {
			failed++
			fmt.Printf("%s %s: %v\n", fail("✗"), path, err)
			continue
		}
		result, err := service.IngestFile(ctx, filepath.Base(path), data)
		if err != nil {
			failed++
			fmt.Printf("%s %s: %v\n", fail("✗"), path, err)
			continue
		}
		fmt.Printf("%s %s %d chunks, %d tokens\n", success("✓"), bold(result.Filename), result.NumChunks, result.TotalTokens)
	}

	info, err := service.CollectionInfo(ctx)
	if err == nil {
		fmt.Printf("\n%s %s/%s: %d documents, %d chunks\n",
			bold("index"), info.Backend, info.CollectionName, info.TotalDocuments, info.TotalChunks)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// collectFiles 展开目录，只保留支持的格式
func collectFiles(paths []string, extractor *document.Extractor) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !extractor.Supports(root) {
				fmt.Printf("%s %s\n", warn("skip"), extractor.UnsupportedMessage(root))
				continue
			}
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !extractor.Supports(path) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// printDocuments 打印已索引文档
func printDocuments(ctx context.Context, service *appRAG.IngestService) error {
	docs, err := service.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println(warn("no documents indexed"))
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%-40s %5d chunks  %s\n", bold(doc.Filename), doc.NumChunks, doc.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
