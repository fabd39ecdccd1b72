package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgVectorIndex 基于 PostgreSQL + pgvector 的向量索引
// 相似度为 1 - (embedding <=> query)
type PgVectorIndex struct {
	pool       *pgxpool.Pool
	collection string
	table      string
	logger     *slog.Logger
}

var _ domainRAG.VectorIndex = (*PgVectorIndex)(nil)

// NewPgVectorIndex 连接数据库并初始化表结构
func NewPgVectorIndex(ctx context.Context, connStr, collection string) (*PgVectorIndex, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	p := &PgVectorIndex{
		pool:       pool,
		collection: collection,
		table:      pgx.Identifier{collection}.Sanitize(),
		logger:     log.NewModuleLogger("vector", "pgvector"),
	}
	if err := p.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// init 创建扩展、表与索引
func (p *PgVectorIndex) init(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS %[1]s (
		chunk_id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		page INTEGER,
		chunk_index INTEGER NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		text TEXT NOT NULL,
		embedding vector NOT NULL
	);

	CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s(source);
	`, p.table, pgx.Identifier{"idx_" + p.collection + "_source"}.Sanitize())

	if _, err := p.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create pgvector tables: %w", err)
	}
	return nil
}

// Upsert 按 chunk_id 插入或覆盖
func (p *PgVectorIndex) Upsert(ctx context.Context, records []*domainRAG.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (chunk_id, source, page, chunk_index, created_at, text, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chunk_id) DO UPDATE SET
			source = EXCLUDED.source,
			page = EXCLUDED.page,
			chunk_index = EXCLUDED.chunk_index,
			created_at = EXCLUDED.created_at,
			text = EXCLUDED.text,
			embedding = EXCLUDED.embedding`, p.table)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query,
			r.ChunkID,
			r.Metadata.Source,
			r.Metadata.Page,
			r.Metadata.ChunkIndex,
			r.Metadata.CreatedAt,
			r.Text,
			pgvector.NewVector(r.Vector),
		)
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}
	return nil
}

// Query 相似度检索
func (p *PgVectorIndex) Query(ctx context.Context, vector []float32, topK int, filter *domainRAG.MetadataFilter) ([]*domainRAG.RetrievedResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domainRAG.ErrEmptyInput)
	}

	where := ""
	args := []any{pgvector.NewVector(vector), topK}
	if filter != nil {
		where, args = whereClause(*filter, args)
	}

	query := fmt.Sprintf(`
		SELECT chunk_id, source, page, chunk_index, created_at, text,
		       1 - (embedding <=> $1) AS similarity
		FROM %s
		%s
		ORDER BY embedding <=> $1
		LIMIT $2`, p.table, where)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pgvector: %w", err)
	}
	defer rows.Close()

	results := make([]*domainRAG.RetrievedResult, 0, topK)
	for rows.Next() {
		var (
			r    domainRAG.RetrievedResult
			page *int
		)
		if err := rows.Scan(
			&r.ChunkID,
			&r.Metadata.Source,
			&page,
			&r.Metadata.ChunkIndex,
			&r.Metadata.CreatedAt,
			&r.Text,
			&r.SimilarityScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Metadata.Page = page
		results = append(results, &r)
	}
	return results, rows.Err()
}

// DeleteByMetadata 删除满足条件的记录
func (p *PgVectorIndex) DeleteByMetadata(ctx context.Context, filter domainRAG.MetadataFilter) (int, error) {
	where, args := whereClause(filter, nil)
	tag, err := p.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s %s", p.table, where), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// whereClause 生成 WHERE 子句，占位符编号接在 args 之后
func whereClause(filter domainRAG.MetadataFilter, args []any) (string, []any) {
	var conds []string
	if filter.Source != "" {
		args = append(args, filter.Source)
		conds = append(conds, fmt.Sprintf("source = $%d", len(args)))
	}
	if len(filter.ExcludeIDs) > 0 {
		args = append(args, filter.ExcludeIDs)
		conds = append(conds, fmt.Sprintf("chunk_id <> ALL($%d)", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// Count 记录总数
func (p *PgVectorIndex) Count(ctx context.Context) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", p.table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// ListMetadata 列出全部记录的元数据
func (p *PgVectorIndex) ListMetadata(ctx context.Context) ([]*domainRAG.IndexedChunk, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(
		"SELECT chunk_id, source, page, chunk_index, created_at FROM %s ORDER BY source, chunk_index", p.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]*domainRAG.IndexedChunk, 0)
	for rows.Next() {
		var (
			c         domainRAG.IndexedChunk
			page      *int
			createdAt time.Time
		)
		if err := rows.Scan(&c.ChunkID, &c.Metadata.Source, &page, &c.Metadata.ChunkIndex, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.Metadata.Page = page
		c.Metadata.CreatedAt = createdAt
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// Clear 清空表
func (p *PgVectorIndex) Clear(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, fmt.Sprintf("TRUNCATE %s", p.table)); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	return nil
}

// Backend 后端名称与集合名称
func (p *PgVectorIndex) Backend() (string, string) {
	return "pgvector", p.collection
}

// Close 关闭连接池
func (p *PgVectorIndex) Close() error {
	if p.pool == nil {
		return errors.New("pgvector pool already closed")
	}
	p.pool.Close()
	p.pool = nil
	return nil
}
