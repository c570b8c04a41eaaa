package sqlite

import "wmsadmin/infrastructure/persistence/schema"

// Table names follow the warehouse host system: cdf holds majors, cds mids
// and cdt subs.
const tablesV1 = `
CREATE TABLE IF NOT EXISTS cdf (
	major_cat_id   INTEGER PRIMARY KEY,
	major_cat_no   TEXT NOT NULL UNIQUE,
	major_cat_name TEXT NOT NULL,
	lock_ver       INTEGER NOT NULL DEFAULT 1,
	created_by     TEXT NOT NULL DEFAULT '',
	created_date   TEXT NOT NULL DEFAULT '',
	modified_by    TEXT NOT NULL DEFAULT '',
	modified_date  TEXT NOT NULL DEFAULT '',
	created_time   TEXT NOT NULL DEFAULT '',
	updated_time   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cds (
	mid_cat_id    INTEGER PRIMARY KEY,
	major_cat_id  INTEGER NOT NULL,
	major_cat_no  TEXT NOT NULL,
	mid_cat_code  TEXT NOT NULL,
	code_desc     TEXT NOT NULL,
	value1        REAL,
	value2        REAL,
	remark        TEXT NOT NULL DEFAULT '',
	lock_ver      INTEGER NOT NULL DEFAULT 1,
	created_by    TEXT NOT NULL DEFAULT '',
	created_date  TEXT NOT NULL DEFAULT '',
	modified_by   TEXT NOT NULL DEFAULT '',
	modified_date TEXT NOT NULL DEFAULT '',
	created_time  TEXT NOT NULL DEFAULT '',
	updated_time  TEXT NOT NULL DEFAULT '',
	UNIQUE (major_cat_no, mid_cat_code)
);

CREATE TABLE IF NOT EXISTS cdt (
	id            INTEGER PRIMARY KEY,
	mid_cat_id    INTEGER NOT NULL,
	major_cat_no  TEXT NOT NULL,
	mid_cat_code  TEXT NOT NULL,
	subcat_code   TEXT NOT NULL,
	code_desc     TEXT NOT NULL,
	remark        TEXT NOT NULL DEFAULT '',
	lock_ver      INTEGER NOT NULL DEFAULT 1,
	created_by    TEXT NOT NULL DEFAULT '',
	created_date  TEXT NOT NULL DEFAULT '',
	modified_by   TEXT NOT NULL DEFAULT '',
	modified_date TEXT NOT NULL DEFAULT '',
	created_time  TEXT NOT NULL DEFAULT '',
	updated_time  TEXT NOT NULL DEFAULT '',
	UNIQUE (major_cat_no, mid_cat_code, subcat_code)
);
`

const indexesV2 = `
CREATE INDEX IF NOT EXISTS idx_cds_major ON cds(major_cat_no);
CREATE INDEX IF NOT EXISTS idx_cdt_mid ON cdt(major_cat_no, mid_cat_code);
`

// migrations builds the schema history of the code tables.
var migrations = []schema.Migration{
	{FromVersion: 0, ToVersion: 1, Description: "code tables", Up: tablesV1},
	{
		FromVersion: 1, ToVersion: 2, Description: "parent lookup indexes", Up: indexesV2,
		Down: "DROP INDEX IF EXISTS idx_cds_major; DROP INDEX IF EXISTS idx_cdt_mid;",
	},
}

const (
	selectMajors = `SELECT major_cat_id, major_cat_no, major_cat_name, lock_ver,
		created_by, created_date, modified_by, modified_date, created_time, updated_time
		FROM cdf ORDER BY major_cat_id`
	selectMids = `SELECT mid_cat_id, major_cat_id, major_cat_no, mid_cat_code, code_desc, value1, value2, remark, lock_ver,
		created_by, created_date, modified_by, modified_date, created_time, updated_time
		FROM cds ORDER BY mid_cat_id`
	selectSubs = `SELECT id, mid_cat_id, major_cat_no, mid_cat_code, subcat_code, code_desc, remark, lock_ver,
		created_by, created_date, modified_by, modified_date, created_time, updated_time
		FROM cdt ORDER BY id`

	insertMajor = `INSERT INTO cdf (major_cat_id, major_cat_no, major_cat_name, lock_ver,
		created_by, created_date, modified_by, modified_date, created_time, updated_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertMid = `INSERT INTO cds (mid_cat_id, major_cat_id, major_cat_no, mid_cat_code, code_desc, value1, value2, remark, lock_ver,
		created_by, created_date, modified_by, modified_date, created_time, updated_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertSub = `INSERT INTO cdt (id, mid_cat_id, major_cat_no, mid_cat_code, subcat_code, code_desc, remark, lock_ver,
		created_by, created_date, modified_by, modified_date, created_time, updated_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	updateMajor = `UPDATE cdf SET major_cat_name = ?, lock_ver = ?, modified_by = ?, modified_date = ?, updated_time = ?
		WHERE major_cat_id = ? AND lock_ver = ?`
	updateMid = `UPDATE cds SET code_desc = ?, value1 = ?, value2 = ?, remark = ?, lock_ver = ?,
		modified_by = ?, modified_date = ?, updated_time = ?
		WHERE mid_cat_id = ? AND lock_ver = ?`
	updateSub = `UPDATE cdt SET code_desc = ?, remark = ?, lock_ver = ?, modified_by = ?, modified_date = ?, updated_time = ?
		WHERE id = ? AND lock_ver = ?`

	deleteMajor = `DELETE FROM cdf WHERE major_cat_id = ? AND lock_ver = ?`
	deleteMid   = `DELETE FROM cds WHERE mid_cat_id = ? AND lock_ver = ?`
	deleteSub   = `DELETE FROM cdt WHERE id = ? AND lock_ver = ?`
)
