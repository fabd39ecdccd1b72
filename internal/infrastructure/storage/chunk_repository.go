package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	domainRAG "github.com/axeltanjung/chatbot-rag/internal/domain/rag"
)

// 确保 ChunkRepository 实现了 domainRAG.VectorIndex 接口
var _ domainRAG.VectorIndex = (*ChunkRepository)(nil)

// ChunkRepository 基于 SQLite 的持久化向量索引
// 向量以 little-endian float32 BLOB 存储，查询时全量计算余弦相似度
type ChunkRepository struct {
	db         *sql.DB
	collection string
}

// NewChunkRepository 创建片段仓库实例
func NewChunkRepository(db *sql.DB, collection string) *ChunkRepository {
	return &ChunkRepository{db: db, collection: collection}
}

// Upsert 批量写入，chunk_id 相同时覆盖
func (r *ChunkRepository) Upsert(ctx context.Context, records []*domainRAG.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO document_chunks (
			collection, chunk_id, source, page, chunk_index, created_at, text, embedding, dimension
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			r.collection,
			rec.ChunkID,
			rec.Metadata.Source,
			domainRAG.EncodePage(rec.Metadata.Page),
			rec.Metadata.ChunkIndex,
			rec.Metadata.CreatedAt.UnixNano(),
			rec.Text,
			encodeVector(rec.Vector),
			len(rec.Vector),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", rec.ChunkID, err)
		}
	}

	return tx.Commit()
}

// Query 全量扫描并按相似度排序
func (r *ChunkRepository) Query(ctx context.Context, vector []float32, topK int, filter *domainRAG.MetadataFilter) ([]*domainRAG.RetrievedResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domainRAG.ErrEmptyInput)
	}

	query := `
		SELECT chunk_id, source, page, chunk_index, created_at, text, embedding
		FROM document_chunks
		WHERE collection = ?`
	args := []any{r.collection}
	if filter != nil {
		clause, filterArgs := filterClause(*filter)
		query += clause
		args = append(args, filterArgs...)
	}
	query += " ORDER BY source, chunk_index"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	results := make([]*domainRAG.RetrievedResult, 0)
	for rows.Next() {
		var (
			result    domainRAG.RetrievedResult
			page      int
			createdAt int64
			blob      []byte
		)
		if err := rows.Scan(
			&result.ChunkID,
			&result.Metadata.Source,
			&page,
			&result.Metadata.ChunkIndex,
			&createdAt,
			&result.Text,
			&blob,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		result.Metadata.Page = domainRAG.DecodePage(page)
		result.Metadata.CreatedAt = time.Unix(0, createdAt).UTC()
		result.SimilarityScore = domainRAG.CosineSimilarity(vector, decodeVector(blob))
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return domainRAG.RankResults(results, topK), nil
}

// DeleteByMetadata 删除满足条件的片段
func (r *ChunkRepository) DeleteByMetadata(ctx context.Context, filter domainRAG.MetadataFilter) (int, error) {
	query := "DELETE FROM document_chunks WHERE collection = ?"
	clause, filterArgs := filterClause(filter)
	query += clause
	args := append([]any{r.collection}, filterArgs...)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// filterClause 生成追加在 WHERE 后的过滤条件
func filterClause(filter domainRAG.MetadataFilter) (string, []any) {
	var (
		clause string
		args   []any
	)
	if filter.Source != "" {
		clause += " AND source = ?"
		args = append(args, filter.Source)
	}
	if len(filter.ExcludeIDs) > 0 {
		clause += " AND chunk_id NOT IN (?" + strings.Repeat(", ?", len(filter.ExcludeIDs)-1) + ")"
		for _, id := range filter.ExcludeIDs {
			args = append(args, id)
		}
	}
	return clause, args
}

// Count 片段总数
func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM document_chunks WHERE collection = ?", r.collection,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// ListMetadata 列出全部片段的元数据
func (r *ChunkRepository) ListMetadata(ctx context.Context) ([]*domainRAG.IndexedChunk, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chunk_id, source, page, chunk_index, created_at
		FROM document_chunks
		WHERE collection = ?
		ORDER BY source, chunk_index`, r.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]*domainRAG.IndexedChunk, 0)
	for rows.Next() {
		var (
			chunk     domainRAG.IndexedChunk
			page      int
			createdAt int64
		)
		if err := rows.Scan(&chunk.ChunkID, &chunk.Metadata.Source, &page, &chunk.Metadata.ChunkIndex, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunk.Metadata.Page = domainRAG.DecodePage(page)
		chunk.Metadata.CreatedAt = time.Unix(0, createdAt).UTC()
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// Clear 清空集合
func (r *ChunkRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM document_chunks WHERE collection = ?", r.collection); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	return nil
}

// Backend 后端名称与集合名称
func (r *ChunkRepository) Backend() (string, string) {
	return "sqlite", r.collection
}

// encodeVector float32 切片编码为 little-endian 字节
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector 解码 encodeVector 的输出
func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
