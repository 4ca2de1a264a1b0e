package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleTable(name string) Table {
	return Table{
		Name:    name,
		Columns: []string{"genre_tag", "recurrence_count"},
		Rows:    [][]string{{"rock", "3"}, {"hip hop, rap", "1"}},
	}
}

func TestCSVSinkCreatesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sink := CSVSink{Dir: dir}

	require.NoError(t, sink.WriteTable(sampleTable("flourish/saved_tracks_mcg")))

	f, err := os.Open(filepath.Join(dir, "flourish", "saved_tracks_mcg.csv"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"genre_tag", "recurrence_count"},
		{"rock", "3"},
		{"hip hop, rap", "1"},
	}, records)
}

func TestCSVSinkRejectsBadTables(t *testing.T) {
	sink := CSVSink{Dir: t.TempDir()}
	assert.Error(t, sink.WriteTable(sampleTable("../escape")))
	assert.Error(t, sink.WriteTable(Table{Name: "x", Columns: []string{"a"}, Rows: [][]string{{"1", "2"}}}))
}

func TestYAMLSink(t *testing.T) {
	out := new(bytes.Buffer)
	sink := &YAMLSink{W: out}
	require.NoError(t, sink.WriteTable(sampleTable("a")))
	require.NoError(t, sink.WriteTable(sampleTable("b")))
	require.NoError(t, Flush(sink))

	var decoded struct {
		Tables []Table `yaml:"tables"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded.Tables, 2)
	assert.Equal(t, sampleTable("b"), decoded.Tables[1])
}

func TestTableString(t *testing.T) {
	s := sampleTable("top").String()
	assert.Contains(t, s, "top")
	assert.Contains(t, s, "rock")
}

type fakeMailer struct {
	subject string
	body    string
	err     error
}

func (m *fakeMailer) Send(subject, body string) error {
	m.subject, m.body = subject, body
	return m.err
}

func TestEmailSink(t *testing.T) {
	mailer := &fakeMailer{}
	sink := &EmailSink{Mailer: mailer, Subject: "Genre report"}
	require.NoError(t, sink.WriteTable(Table{Name: "x", Columns: []string{"name"}, Rows: [][]string{{"<b>"}}}))
	require.NoError(t, sink.Flush())

	assert.Equal(t, "Genre report", mailer.subject)
	assert.Contains(t, mailer.body, "<td>&lt;b&gt;</td>")

	// Nothing buffered, nothing sent.
	mailer.subject = ""
	require.NoError(t, sink.Flush())
	assert.Empty(t, mailer.subject)
}

func TestEmailSinkRejectsBadTables(t *testing.T) {
	mailer := &fakeMailer{}
	sink := &EmailSink{Mailer: mailer, Subject: "s"}
	assert.Error(t, sink.WriteTable(Table{Name: "x", Columns: []string{"a"}, Rows: [][]string{{"1", "2"}}}))
	assert.Error(t, sink.WriteTable(Table{Columns: []string{"a"}}))

	// Rejected tables are not buffered, so nothing is sent.
	require.NoError(t, sink.Flush())
	assert.Empty(t, mailer.subject)
}

func TestEmailSinkDryRun(t *testing.T) {
	out := new(bytes.Buffer)
	mailer := &fakeMailer{err: errors.New("should not send")}
	sink := &EmailSink{Mailer: mailer, Subject: "s", DryRun: true, Out: out}
	require.NoError(t, sink.WriteTable(sampleTable("a")))
	require.NoError(t, sink.Flush())
	assert.Contains(t, out.String(), "Would have sent email")
}

type recordingSink struct {
	names   []string
	err     error
	flushed bool
}

func (s *recordingSink) WriteTable(t Table) error {
	s.names = append(s.names, t.Name)
	return s.err
}

func (s *recordingSink) Flush() error {
	s.flushed = true
	return nil
}

func TestMulti(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	ok := &recordingSink{}
	m := Multi{failing, ok, TableSink{W: new(bytes.Buffer)}}

	err := m.WriteTable(sampleTable("a"))
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []string{"a"}, ok.names)

	require.NoError(t, m.Flush())
	assert.True(t, failing.flushed)
	assert.True(t, ok.flushed)
}

type memSaver map[string][]Table

func (m memSaver) SaveTable(runID string, t Table) error {
	m[runID] = append(m[runID], t)
	return nil
}

func TestStoreSink(t *testing.T) {
	saver := memSaver{}
	sink := StoreSink{Store: saver, RunID: "run-1"}
	require.NoError(t, sink.WriteTable(sampleTable("a")))
	assert.Len(t, saver["run-1"], 1)
}
