package localimage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpzouying/localimages-mcp/configs"
)

// fakeStorage 内存版存储适配器，记录所有写入便于断言
type fakeStorage struct {
	mu        sync.Mutex
	folders   map[string]bool
	files     map[string][]byte
	failWrite bool
	writes    int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		folders: make(map[string]bool),
		files:   make(map[string][]byte),
	}
}

func (f *fakeStorage) Exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.folders[path] {
		return true
	}
	_, ok := f.files[path]
	return ok
}

func (f *fakeStorage) CreateFolder(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.folders[path] = true
	return nil
}

func (f *fakeStorage) ReadText(path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("not found: %s", path)
	}
	return string(data), nil
}

func (f *fakeStorage) WriteText(path string, content string) error {
	return f.WriteBinary(path, []byte(content))
}

func (f *fakeStorage) WriteBinary(path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return fmt.Errorf("write denied: %s", path)
	}
	f.files[path] = data
	f.writes++
	return nil
}

func testEntry() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}

func hash8(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])[:8]
}

func fastSettings() configs.Settings {
	s := configs.DefaultSettings()
	s.MaxRetries = 1
	s.TimeoutMs = 5000
	return s
}

func TestProcessTextDownloadsAndRewrites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	storage := newFakeStorage()
	stats := &Stats{}
	p := NewProcessor(storage, fastSettings(), stats, testEntry())

	text := fmt.Sprintf("前文\n![pic](%s/img/photo123.jpg)\n后文", srv.URL)
	got, changed, err := p.ProcessText(context.Background(), text)
	require.NoError(t, err)
	assert.True(t, changed)

	local := "attachments/photo123-" + hash8(jpegBytes) + ".jpg"
	assert.Equal(t, fmt.Sprintf("前文\n![pic](%s)\n后文", local), got)
	assert.Equal(t, jpegBytes, storage.files[local])

	snap := stats.Snapshot()
	assert.Equal(t, StatsSnapshot{Total: 1, Downloaded: 1, Failed: 0, Skipped: 0}, snap)
}

func TestProcessTextOriginalNaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	settings := fastSettings()
	settings.HashNames = false

	storage := newFakeStorage()
	p := NewProcessor(storage, settings, &Stats{}, testEntry())

	text := fmt.Sprintf("![pic](%s/img/photo123.jpg)", srv.URL)
	got, _, err := p.ProcessText(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, "![pic](attachments/photo123.jpg)", got)
}

func TestProcessTextSniffOverridesURLExtension(t *testing.T) {
	// URL 声称是 png，实际字节是 JPEG，以字节为准
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	storage := newFakeStorage()
	p := NewProcessor(storage, fastSettings(), &Stats{}, testEntry())

	got, _, err := p.ProcessText(context.Background(), fmt.Sprintf("![x](%s/a/cover.png)", srv.URL))
	require.NoError(t, err)
	assert.Contains(t, got, ".jpg)")
	assert.NotContains(t, got, ".png)")
}

func TestProcessTextFailedFetchKeepsOriginal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	settings := fastSettings()
	settings.MaxRetries = 3

	storage := newFakeStorage()
	stats := &Stats{}
	p := NewProcessor(storage, settings, stats, testEntry())

	text := fmt.Sprintf("![pic](%s/img/gone.jpg)", srv.URL)
	got, changed, err := p.ProcessText(context.Background(), text)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, text, got)
	assert.Equal(t, int32(3), calls.Load())

	snap := stats.Snapshot()
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, snap.Total, snap.Downloaded+snap.Failed+snap.Skipped)
}

func TestProcessTextIgnoredDomain(t *testing.T) {
	settings := fastSettings()
	settings.IgnoredDomains = "127.0.0.1"

	storage := newFakeStorage()
	stats := &Stats{}
	p := NewProcessor(storage, settings, stats, testEntry())

	text := "![pic](http://127.0.0.1:9999/img/a.jpg)"
	got, changed, err := p.ProcessText(context.Background(), text)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, text, got)

	snap := stats.Snapshot()
	assert.Equal(t, StatsSnapshot{Total: 1, Downloaded: 0, Failed: 0, Skipped: 1}, snap)
}

func TestProcessTextNonImageUntouched(t *testing.T) {
	storage := newFakeStorage()
	stats := &Stats{}
	p := NewProcessor(storage, fastSettings(), stats, testEntry())

	text := "![doc](https://example.com/paper.html) 正文 [链接](https://example.com/about)"
	got, changed, err := p.ProcessText(context.Background(), text)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, text, got)
	assert.Equal(t, StatsSnapshot{}, stats.Snapshot())
}

func TestProcessTextHTMLImageRewrittenWithAlt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	storage := newFakeStorage()
	p := NewProcessor(storage, fastSettings(), &Stats{}, testEntry())

	text := fmt.Sprintf(`<img src="%s/img/cat.jpg" alt="小猫">`, srv.URL)
	got, changed, err := p.ProcessText(context.Background(), text)
	require.NoError(t, err)
	assert.True(t, changed)

	local := "attachments/cat-" + hash8(jpegBytes) + ".jpg"
	assert.Equal(t, "![小猫]("+local+")", got)
}

func TestProcessTextExistingFileShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	local := "attachments/photo123-" + hash8(jpegBytes) + ".jpg"

	storage := newFakeStorage()
	storage.files[local] = []byte("pre-existing")

	stats := &Stats{}
	p := NewProcessor(storage, fastSettings(), stats, testEntry())

	got, changed, err := p.ProcessText(context.Background(),
		fmt.Sprintf("![pic](%s/img/photo123.jpg)", srv.URL))
	require.NoError(t, err)

	// 已存在的文件不重写字节，但引用依然改写、依然计入 downloaded
	assert.True(t, changed)
	assert.Contains(t, got, local)
	assert.Equal(t, []byte("pre-existing"), storage.files[local])
	assert.Equal(t, 0, storage.writes)
	assert.Equal(t, int64(1), stats.Snapshot().Downloaded)
}

func TestProcessTextIdempotent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	storage := newFakeStorage()
	p := NewProcessor(storage, fastSettings(), &Stats{}, testEntry())

	text := fmt.Sprintf("![a](%s/img/one.jpg)\n![b](%s/img/two.jpg)", srv.URL, srv.URL)

	first, changed, err := p.ProcessText(context.Background(), text)
	require.NoError(t, err)
	require.True(t, changed)
	firstCalls := calls.Load()

	// 第二遍：引用已全部本地化，必须是纯 no-op
	p2 := NewProcessor(storage, fastSettings(), &Stats{}, testEntry())
	second, changed, err := p2.ProcessText(context.Background(), first)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first, second)
	assert.Equal(t, firstCalls, calls.Load())
}

func TestProcessTextConcurrentMatchesKeepOrder(t *testing.T) {
	// 不同 URL 返回不同内容，校验回填顺序与完成顺序无关
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(append(jpegBytes, r.URL.Path...))
	}))
	defer srv.Close()

	storage := newFakeStorage()
	stats := &Stats{}
	p := NewProcessor(storage, fastSettings(), stats, testEntry())

	var text string
	for i := 0; i < 8; i++ {
		text += fmt.Sprintf("![n%d](%s/img/name%d.jpg)\n", i, srv.URL, i)
	}

	got, _, err := p.ProcessText(context.Background(), text)
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		payload := append(append([]byte{}, jpegBytes...), fmt.Sprintf("/img/name%d.jpg", i)...)
		local := fmt.Sprintf("attachments/name%d-%s.jpg", i, hash8(payload))
		assert.Contains(t, got, fmt.Sprintf("![n%d](%s)", i, local))
	}

	snap := stats.Snapshot()
	assert.Equal(t, int64(8), snap.Total)
	assert.Equal(t, snap.Total, snap.Downloaded+snap.Failed+snap.Skipped)
}

func TestProcessTextStorageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	storage := newFakeStorage()
	storage.failWrite = true

	stats := &Stats{}
	p := NewProcessor(storage, fastSettings(), stats, testEntry())

	text := fmt.Sprintf("![pic](%s/img/a.jpg)", srv.URL)
	got, changed, err := p.ProcessText(context.Background(), text)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, text, got)
	assert.Equal(t, int64(1), stats.Snapshot().Failed)
}
