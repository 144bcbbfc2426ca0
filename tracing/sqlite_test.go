package tracing

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SQLiteRecorder", func() {
	var (
		recorder *SQLiteRecorder
		reader   *SQLiteRecordReader
	)

	BeforeEach(func() {
		dir, err := os.MkdirTemp("", "ckpt-trace")
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		dbPath := filepath.Join(dir, "trace")

		recorder = NewSQLiteRecorder(dbPath).WithBatchSize(2)
		Expect(recorder.Init()).To(Succeed())

		reader = NewSQLiteRecordReader(dbPath + ".sqlite3")
		Expect(reader.Init()).To(Succeed())
	})

	AfterEach(func() {
		recorder.Close()
		reader.DB.Close()
	})

	It("should open the database", func() {
		Expect(recorder.DB).ToNot(BeNil())
		Expect(recorder.DBName()).ToNot(BeEmpty())
	})

	It("should refuse to write into an existing file", func() {
		again := NewSQLiteRecorder(recorder.DBName())

		Expect(again.Init()).ToNot(Succeed())
	})

	It("should keep records buffered until flushed", func() {
		recorder.Record(TraversalRecord{
			Name:     "*pingpong.Model",
			Mode:     "writing",
			Bytes:    128,
			Objects:  3,
			Duration: 5 * time.Microsecond,
		})

		records, err := reader.ListRecords("")
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(BeEmpty())

		recorder.Flush()

		records, err = reader.ListRecords("")
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(1))

		rec := records[0]
		Expect(rec.ID).ToNot(BeEmpty())
		Expect(rec.Name).To(Equal("*pingpong.Model"))
		Expect(rec.Mode).To(Equal("writing"))
		Expect(rec.Bytes).To(Equal(128))
		Expect(rec.Objects).To(Equal(3))
		Expect(rec.Duration).To(Equal(5 * time.Microsecond))
		Expect(rec.Failed()).To(BeFalse())
	})

	It("should write a batch once it is full", func() {
		recorder.Record(TraversalRecord{Mode: "measuring"})
		recorder.Record(TraversalRecord{
			Mode:  "reading",
			Error: "serialization [decode] truncated",
		})

		records, err := reader.ListRecords("reading")
		Expect(err).ToNot(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Failed()).To(BeTrue())

		all, err := reader.ListRecords("")
		Expect(err).ToNot(HaveOccurred())
		Expect(all).To(HaveLen(2))
	})
})

var _ = Describe("SQLiteRecorder before Init", func() {
	It("should do nothing on flush", func() {
		recorder := NewSQLiteRecorder("")

		recorder.Record(TraversalRecord{Mode: "writing"})

		Expect(recorder.Flush).ToNot(Panic())
		Expect(recorder.Close()).To(Succeed())
	})
})
