package report

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_Store(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(dir)

	got, err := s.Store(context.Background(), "s1", strings.NewReader(`{"timestamp":"t"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "s1", ReportName), got)

	raw, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, `{"timestamp":"t"}`, string(raw))
}

func TestFileSink_RejectsPathTricks(t *testing.T) {
	s := NewFileSink(t.TempDir())

	for _, id := range []string{"", "..", "../escape", "a/b"} {
		_, err := s.Store(context.Background(), id, strings.NewReader("x"), 1)
		assert.ErrorIs(t, err, ErrInvalidSession, id)
	}
}

func TestFileSink_CancelledContext(t *testing.T) {
	s := NewFileSink(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Store(ctx, "s1", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSink_FailedWriteKeepsPreviousReport(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(dir)

	path, err := s.Store(context.Background(), "s1", strings.NewReader(`{"v":1}`), -1)
	require.NoError(t, err)

	broken := io.MultiReader(strings.NewReader(`{"v":`), iotest.ErrReader(errors.New("connection reset")))
	_, err = s.Store(context.Background(), "s1", broken, -1)
	assert.ErrorContains(t, err, "connection reset")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(raw))

	entries, err := os.ReadDir(filepath.Join(dir, "s1"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files are left behind")
	assert.Equal(t, ReportName, entries[0].Name())
}

func TestFileSink_FailedFirstWriteLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(dir)

	_, err := s.Store(context.Background(), "s1", iotest.ErrReader(errors.New("eof")), -1)
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "s1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type fakePutter struct {
	bucket string
	key    string
	body   string
	opts   minio.PutObjectOptions
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	raw, _ := io.ReadAll(r)
	f.bucket, f.key, f.body, f.opts = bucket, key, string(raw), opts
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(raw))}, nil
}

func TestMinIOSink_Store(t *testing.T) {
	putter := &fakePutter{}
	s := &MinIOSink{client: putter, bucket: "reports", prefix: "workbench"}

	got, err := s.Store(context.Background(), "s1", strings.NewReader("{}"), 2)
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/workbench/s1/analysis_report.json", got)
	assert.Equal(t, "workbench/s1/analysis_report.json", putter.key)
	assert.Equal(t, "{}", putter.body)
	assert.Equal(t, "application/json", putter.opts.ContentType)

	putter.err = errors.New("access denied")
	_, err = s.Store(context.Background(), "s1", strings.NewReader("{}"), 2)
	assert.ErrorContains(t, err, "access denied")
}
