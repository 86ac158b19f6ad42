package localimage

import "sync/atomic"

// Stats 一次处理操作（或一批文档）共享的计数器。
// 单篇文档内的各个匹配是并发解析的，所以计数必须用原子递增。
// 不变式：处理结束后 Total == Downloaded + Failed + Skipped
// （没被识别成图片的链接不计入任何一项）。
type Stats struct {
	total      atomic.Int64
	downloaded atomic.Int64
	failed     atomic.Int64
	skipped    atomic.Int64
}

func (s *Stats) addTotal()      { s.total.Add(1) }
func (s *Stats) addDownloaded() { s.downloaded.Add(1) }
func (s *Stats) addFailed()     { s.failed.Add(1) }
func (s *Stats) addSkipped()    { s.skipped.Add(1) }

// StatsSnapshot 统计的只读快照，用于响应和通知。
type StatsSnapshot struct {
	Total      int64 `json:"total"`
	Downloaded int64 `json:"downloaded"`
	Failed     int64 `json:"failed"`
	Skipped    int64 `json:"skipped"`
}

// Snapshot 取当前计数的快照。
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Total:      s.total.Load(),
		Downloaded: s.downloaded.Load(),
		Failed:     s.failed.Load(),
		Skipped:    s.skipped.Load(),
	}
}
