package tracing

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/tebeka/atexit"
)

// SQLiteRecorder is a recorder that writes traversal records to a SQLite
// database. Records are written in batches.
type SQLiteRecorder struct {
	*sql.DB

	lock      sync.Mutex
	statement *sql.Stmt
	proc      *process.Process

	dbName           string
	recordsToWrite   []TraversalRecord
	batchSize        int
	initialized      bool
	registeredAtExit bool
}

// NewSQLiteRecorder creates a new SQLiteRecorder. If path is empty, a unique
// database name is generated when Init is called.
func NewSQLiteRecorder(path string) *SQLiteRecorder {
	r := &SQLiteRecorder{
		dbName:    path,
		batchSize: 10000,
	}

	return r
}

// WithBatchSize sets the number of records that are buffered before they are
// written.
func (r *SQLiteRecorder) WithBatchSize(n int) *SQLiteRecorder {
	r.batchSize = n
	return r
}

// DBName returns the name of the database file, without the extension.
func (r *SQLiteRecorder) DBName() string {
	return r.dbName
}

// Init establishes a connection to the database and creates the table. The
// buffered records are flushed when the program exits through atexit.
func (r *SQLiteRecorder) Init() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.initialized {
		return nil
	}

	err := r.createDatabase(xid.New().String())
	if err != nil {
		return err
	}

	err = r.createTable()
	if err != nil {
		return err
	}

	r.statement, err = r.Prepare(
		`INSERT INTO traversals VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}

	r.proc, err = process.NewProcess(int32(os.Getpid()))
	if err != nil {
		r.proc = nil
	}

	if !r.registeredAtExit {
		atexit.Register(func() { r.Flush() })
		r.registeredAtExit = true
	}

	r.initialized = true

	return nil
}

// Record buffers a record. The resident memory of the process is sampled
// when the record arrives.
func (r *SQLiteRecorder) Record(record TraversalRecord) {
	r.lock.Lock()

	if record.ID == "" {
		record.ID = xid.New().String()
	}

	if r.proc != nil {
		mem, err := r.proc.MemoryInfo()
		if err == nil {
			record.RSS = mem.RSS
		}
	}

	r.recordsToWrite = append(r.recordsToWrite, record)
	full := len(r.recordsToWrite) >= r.batchSize

	r.lock.Unlock()

	if full {
		r.Flush()
	}
}

// Flush writes all the buffered records to the database.
func (r *SQLiteRecorder) Flush() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if !r.initialized || len(r.recordsToWrite) == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for _, rec := range r.recordsToWrite {
		_, err := r.statement.Exec(
			rec.ID,
			rec.Name,
			rec.Mode,
			rec.Bytes,
			rec.Objects,
			rec.Polymorphic,
			rec.Nodes,
			rec.Duration.Nanoseconds(),
			rec.Error,
			int64(rec.RSS),
		)
		if err != nil {
			panic(err)
		}
	}

	r.recordsToWrite = nil
}

// Close flushes the buffered records and closes the database.
func (r *SQLiteRecorder) Close() error {
	r.Flush()

	r.lock.Lock()
	defer r.lock.Unlock()

	if !r.initialized {
		return nil
	}

	r.initialized = false

	return r.DB.Close()
}

func (r *SQLiteRecorder) createDatabase(fileName string) error {
	if r.dbName == "" {
		r.dbName = "ckpt_trace_" + fileName
	}

	filename := r.dbName + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return err
	}

	r.DB = db

	return nil
}

func (r *SQLiteRecorder) createTable() error {
	_, err := r.Exec(`
		create table traversals
		(
			id          varchar(200) not null,
			name        varchar(200),
			mode        varchar(20),
			bytes       integer,
			objects     integer,
			polymorphic integer,
			nodes       integer,
			duration_ns integer,
			error       text,
			rss         integer
		);
	`)
	if err != nil {
		return err
	}

	_, err = r.Exec(`create index traversals_mode_index on traversals (mode);`)

	return err
}

func (r *SQLiteRecorder) mustExecute(query string) sql.Result {
	res, err := r.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}

// SQLiteRecordReader reads traversal records from a SQLite database.
type SQLiteRecordReader struct {
	*sql.DB

	filename string
}

// NewSQLiteRecordReader creates a new SQLiteRecordReader.
func NewSQLiteRecordReader(filename string) *SQLiteRecordReader {
	return &SQLiteRecordReader{
		filename: filename,
	}
}

// Init establishes a connection to the database.
func (r *SQLiteRecordReader) Init() error {
	db, err := sql.Open("sqlite3", r.filename)
	if err != nil {
		return err
	}

	r.DB = db

	return nil
}

// ListRecords returns the records of the given mode, or of all modes if mode
// is empty.
func (r *SQLiteRecordReader) ListRecords(mode string) ([]TraversalRecord, error) {
	query := `SELECT id, name, mode, bytes, objects, polymorphic, nodes,
		duration_ns, error, rss FROM traversals`
	args := []any{}

	if mode != "" {
		query += " WHERE mode = ?"
		args = append(args, mode)
	}

	rows, err := r.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TraversalRecord

	for rows.Next() {
		var (
			rec      TraversalRecord
			duration int64
			rss      int64
		)

		err := rows.Scan(
			&rec.ID,
			&rec.Name,
			&rec.Mode,
			&rec.Bytes,
			&rec.Objects,
			&rec.Polymorphic,
			&rec.Nodes,
			&duration,
			&rec.Error,
			&rss,
		)
		if err != nil {
			return nil, err
		}

		rec.Duration = time.Duration(duration)
		rec.RSS = uint64(rss)
		records = append(records, rec)
	}

	return records, rows.Err()
}
