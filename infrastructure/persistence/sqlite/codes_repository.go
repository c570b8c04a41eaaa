// Package sqlite stores the code tree in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"wmsadmin/domain/core/aggregates"
	"wmsadmin/domain/core/entities"
	"wmsadmin/infrastructure/persistence/schema"
	apperrors "wmsadmin/pkg/errors"

	"go.uber.org/zap"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// CodesRepository implements ports.CodesRepository on SQLite
type CodesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCodesRepository opens or creates the database at path. ":memory:"
// gives a private in-memory database.
func NewCodesRepository(ctx context.Context, path string, logger *zap.Logger) (*CodesRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	r := &CodesRepository{db: db, logger: logger}
	if err := r.initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *CodesRepository) initialize(ctx context.Context) error {
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := r.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	evo := schema.NewSchemaEvolution(r.db)
	for _, m := range migrations {
		if err := evo.RegisterMigration(m); err != nil {
			return err
		}
	}
	if err := evo.Migrate(ctx, evo.Latest()); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (r *CodesRepository) Close() error {
	return r.db.Close()
}

// SeedIfEmpty inserts tree when no major exists yet. It reports whether
// rows were written.
func (r *CodesRepository) SeedIfEmpty(ctx context.Context, tree *entities.CodesTree) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cdf`).Scan(&n); err != nil {
		return false, apperrors.NewDatabaseError("count majors", err)
	}
	if n > 0 {
		return false, nil
	}
	cs := &aggregates.ChangeSet{
		MajorCreates: tree.MajorCategories,
		MidCreates:   tree.MidCategories,
		SubCreates:   tree.SubCategories,
	}
	if err := r.Commit(ctx, cs); err != nil {
		return false, err
	}
	r.logger.Info("Seeded code tables",
		zap.Int("majors", len(tree.MajorCategories)),
		zap.Int("mids", len(tree.MidCategories)),
		zap.Int("subs", len(tree.SubCategories)),
	)
	return true, nil
}

// LoadTree reads the three tables in id order
func (r *CodesRepository) LoadTree(ctx context.Context) (*entities.CodesTree, error) {
	tree := entities.NewCodesTree()

	rows, err := r.db.QueryContext(ctx, selectMajors)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load majors", err)
	}
	for rows.Next() {
		var m entities.MajorCategory
		if err := rows.Scan(&m.MajorCatID, &m.MajorCatNo, &m.MajorCatName, &m.LockVer,
			&m.CreatedBy, &m.CreatedDate, &m.ModifiedBy, &m.ModifiedDate, &m.CreatedTime, &m.UpdatedTime); err != nil {
			rows.Close()
			return nil, apperrors.NewDatabaseError("scan major", err)
		}
		tree.MajorCategories = append(tree.MajorCategories, m)
	}
	if err := closeRows(rows); err != nil {
		return nil, apperrors.NewDatabaseError("load majors", err)
	}

	rows, err = r.db.QueryContext(ctx, selectMids)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load mids", err)
	}
	for rows.Next() {
		var m entities.MidCategory
		var v1, v2 sql.NullFloat64
		if err := rows.Scan(&m.MidCatID, &m.MajorCatID, &m.MajorCatNo, &m.MidCatCode, &m.CodeDesc, &v1, &v2, &m.Remark, &m.LockVer,
			&m.CreatedBy, &m.CreatedDate, &m.ModifiedBy, &m.ModifiedDate, &m.CreatedTime, &m.UpdatedTime); err != nil {
			rows.Close()
			return nil, apperrors.NewDatabaseError("scan mid", err)
		}
		m.Value1 = fromNull(v1)
		m.Value2 = fromNull(v2)
		tree.MidCategories = append(tree.MidCategories, m)
	}
	if err := closeRows(rows); err != nil {
		return nil, apperrors.NewDatabaseError("load mids", err)
	}

	rows, err = r.db.QueryContext(ctx, selectSubs)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load subs", err)
	}
	for rows.Next() {
		var s entities.SubCategory
		if err := rows.Scan(&s.ID, &s.MidCatID, &s.MajorCatNo, &s.MidCatCode, &s.SubcatCode, &s.CodeDesc, &s.Remark, &s.LockVer,
			&s.CreatedBy, &s.CreatedDate, &s.ModifiedBy, &s.ModifiedDate, &s.CreatedTime, &s.UpdatedTime); err != nil {
			rows.Close()
			return nil, apperrors.NewDatabaseError("scan sub", err)
		}
		tree.SubCategories = append(tree.SubCategories, s)
	}
	if err := closeRows(rows); err != nil {
		return nil, apperrors.NewDatabaseError("load subs", err)
	}

	return tree, nil
}

// Commit writes the change set in one transaction. Updates and deletes are
// conditioned on lock_ver; a missed condition or a unique violation rolls
// everything back with ErrConcurrentModification.
func (r *CodesRepository) Commit(ctx context.Context, cs *aggregates.ChangeSet) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewDatabaseError("begin", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Rollback failed", zap.Error(rbErr))
			}
		}
	}()

	// Children go first on delete so a major never disappears under its mids.
	for _, ch := range cs.SubDeletes {
		if err = execOne(ctx, tx, deleteSub, ch.Row.ID, ch.ExpectedLockVer); err != nil {
			return err
		}
	}
	for _, ch := range cs.MidDeletes {
		if err = execOne(ctx, tx, deleteMid, ch.Row.MidCatID, ch.ExpectedLockVer); err != nil {
			return err
		}
	}
	for _, ch := range cs.MajorDeletes {
		if err = execOne(ctx, tx, deleteMajor, ch.Row.MajorCatID, ch.ExpectedLockVer); err != nil {
			return err
		}
	}

	for _, ch := range cs.MajorUpdates {
		m := ch.Row
		if err = execOne(ctx, tx, updateMajor, m.MajorCatName, m.LockVer, m.ModifiedBy, m.ModifiedDate, m.UpdatedTime,
			m.MajorCatID, ch.ExpectedLockVer); err != nil {
			return err
		}
	}
	for _, ch := range cs.MidUpdates {
		m := ch.Row
		if err = execOne(ctx, tx, updateMid, m.CodeDesc, toNull(m.Value1), toNull(m.Value2), m.Remark, m.LockVer,
			m.ModifiedBy, m.ModifiedDate, m.UpdatedTime, m.MidCatID, ch.ExpectedLockVer); err != nil {
			return err
		}
	}
	for _, ch := range cs.SubUpdates {
		s := ch.Row
		if err = execOne(ctx, tx, updateSub, s.CodeDesc, s.Remark, s.LockVer, s.ModifiedBy, s.ModifiedDate, s.UpdatedTime,
			s.ID, ch.ExpectedLockVer); err != nil {
			return err
		}
	}

	for _, m := range cs.MajorCreates {
		if err = execOne(ctx, tx, insertMajor, m.MajorCatID, m.MajorCatNo, m.MajorCatName, m.LockVer,
			m.CreatedBy, m.CreatedDate, m.ModifiedBy, m.ModifiedDate, m.CreatedTime, m.UpdatedTime); err != nil {
			return err
		}
	}
	for _, m := range cs.MidCreates {
		if err = execOne(ctx, tx, insertMid, m.MidCatID, m.MajorCatID, m.MajorCatNo, m.MidCatCode, m.CodeDesc,
			toNull(m.Value1), toNull(m.Value2), m.Remark, m.LockVer,
			m.CreatedBy, m.CreatedDate, m.ModifiedBy, m.ModifiedDate, m.CreatedTime, m.UpdatedTime); err != nil {
			return err
		}
	}
	for _, s := range cs.SubCreates {
		if err = execOne(ctx, tx, insertSub, s.ID, s.MidCatID, s.MajorCatNo, s.MidCatCode, s.SubcatCode, s.CodeDesc, s.Remark, s.LockVer,
			s.CreatedBy, s.CreatedDate, s.ModifiedBy, s.ModifiedDate, s.CreatedTime, s.UpdatedTime); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.NewDatabaseError("commit", err)
	}
	return nil
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintViolation(err) {
			return apperrors.ErrConcurrentModification.WithCause(err)
		}
		return apperrors.NewDatabaseError("write", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewDatabaseError("rows affected", err)
	}
	if n != 1 {
		return apperrors.ErrConcurrentModification
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

func toNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return entities.Float(v.Float64)
}
