package embedding

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/pkg/sqlitedb"
)

// Schema 是向量表。向量以 little-endian float64 BLOB 存储，并记录写入时的维度。
const Schema = `
CREATE TABLE IF NOT EXISTS embeddings (
	owner          TEXT NOT NULL,
	owner_id       TEXT NOT NULL,
	cf             BLOB,
	cf_dim         INTEGER NOT NULL DEFAULT 0,
	descriptor     BLOB,
	descriptor_dim INTEGER NOT NULL DEFAULT 0,
	tokens         TEXT,
	trained_at     INTEGER NOT NULL,
	PRIMARY KEY (owner, owner_id)
);
`

// SQLiteStore 是 SQLite 实现的向量存储。
type SQLiteStore struct {
	db     *sql.DB
	schema core.EmbeddingSchema
}

// OpenSQLiteStore 打开数据库并建表。
func OpenSQLiteStore(dsn string, schema core.EmbeddingSchema) (*SQLiteStore, error) {
	if err := schema.Check(); err != nil {
		return nil, err
	}
	db, err := sqlitedb.Open(dsn, Schema)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, schema: schema}, nil
}

// NewSQLiteStore 复用已打开的连接，调用方负责执行 Schema。
func NewSQLiteStore(db *sql.DB, schema core.EmbeddingSchema) (*SQLiteStore, error) {
	if err := schema.Check(); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, schema: schema}, nil
}

var _ ReadWriter = (*SQLiteStore)(nil)

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) UserEmbedding(ctx context.Context, userID string) (*core.Embedding, error) {
	e, err := s.get(ctx, core.OwnerUser, userID)
	return observe("sqlite", core.OwnerUser, e, err)
}

func (s *SQLiteStore) ActivityEmbedding(ctx context.Context, activityID string) (*core.Embedding, error) {
	e, err := s.get(ctx, core.OwnerActivity, activityID)
	return observe("sqlite", core.OwnerActivity, e, err)
}

func (s *SQLiteStore) get(ctx context.Context, owner core.EmbeddingOwner, id string) (*core.Embedding, error) {
	if id == "" {
		return nil, nil
	}
	var (
		cfBlob, descBlob []byte
		cfDim, descDim   int
		tokens           sql.NullString
		trainedAt        int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT cf, cf_dim, descriptor, descriptor_dim, tokens, trained_at
		FROM embeddings WHERE owner = ? AND owner_id = ?`, string(owner), id,
	).Scan(&cfBlob, &cfDim, &descBlob, &descDim, &tokens, &trainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.NewUnavailableError(core.ModuleEmbedding, fmt.Sprintf("read %s embedding %q", owner, id), err)
	}

	e := &core.Embedding{OwnerID: id, TrainedAt: time.Unix(0, trainedAt).UTC()}
	if e.CF, err = deserializeVector(cfBlob, cfDim); err != nil {
		return nil, core.NewUnavailableError(core.ModuleEmbedding, fmt.Sprintf("decode %s embedding %q cf", owner, id), err)
	}
	if e.Descriptor, err = deserializeVector(descBlob, descDim); err != nil {
		return nil, core.NewUnavailableError(core.ModuleEmbedding, fmt.Sprintf("decode %s embedding %q descriptor", owner, id), err)
	}
	if tokens.Valid && tokens.String != "" {
		if err := json.Unmarshal([]byte(tokens.String), &e.DescriptorTokens); err != nil {
			return nil, core.NewUnavailableError(core.ModuleEmbedding, fmt.Sprintf("decode %s embedding %q tokens", owner, id), err)
		}
	}
	if err := s.schema.Validate(owner, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *SQLiteStore) PutUserEmbedding(ctx context.Context, e *core.Embedding) error {
	return s.put(ctx, core.OwnerUser, e)
}

func (s *SQLiteStore) PutActivityEmbedding(ctx context.Context, e *core.Embedding) error {
	return s.put(ctx, core.OwnerActivity, e)
}

func (s *SQLiteStore) put(ctx context.Context, owner core.EmbeddingOwner, e *core.Embedding) error {
	if err := checkWrite(s.schema, owner, e); err != nil {
		return err
	}
	var tokens sql.NullString
	if len(e.DescriptorTokens) > 0 {
		data, err := json.Marshal(e.DescriptorTokens)
		if err != nil {
			return fmt.Errorf("encode tokens: %w", err)
		}
		tokens = sql.NullString{String: string(data), Valid: true}
	}
	trainedAt := e.TrainedAt
	if trainedAt.IsZero() {
		trainedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (owner, owner_id, cf, cf_dim, descriptor, descriptor_dim, tokens, trained_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, owner_id) DO UPDATE SET
			cf = excluded.cf,
			cf_dim = excluded.cf_dim,
			descriptor = excluded.descriptor,
			descriptor_dim = excluded.descriptor_dim,
			tokens = excluded.tokens,
			trained_at = excluded.trained_at`,
		string(owner), e.OwnerID,
		serializeVector(e.CF), len(e.CF),
		serializeVector(e.Descriptor), len(e.Descriptor),
		tokens, trainedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("store %s embedding %q: %w", owner, e.OwnerID, err)
	}
	return nil
}

func serializeVector(v []float64) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func deserializeVector(data []byte, dim int) ([]float64, error) {
	if dim == 0 {
		return nil, nil
	}
	if len(data) != dim*8 {
		return nil, fmt.Errorf("blob has %d bytes, want %d for %d dims", len(data), dim*8, dim)
	}
	v := make([]float64, dim)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return v, nil
}
