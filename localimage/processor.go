package localimage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/localimages-mcp/configs"
	"github.com/xpzouying/localimages-mcp/pkg/downloader"
	"github.com/xpzouying/localimages-mcp/pkg/imageurl"
	"github.com/xpzouying/localimages-mcp/vault"
)

// Processor 文档重写器：扫描文档里的远程图片引用，
// 逐个走 分类→下载→嗅探→转码→命名→落盘 流水线，
// 最后把引用替换成本地路径。
//
// 配置是操作开始时取的不可变快照，统计对象由调用方传入，
// 一批文档可以共享同一个 Stats。
type Processor struct {
	storage  vault.Storage
	fetcher  *downloader.Fetcher
	settings configs.Settings
	ignored  []string
	stats    *Stats
	log      *logrus.Entry
}

// NewProcessor 创建处理器。stats 可跨多篇文档复用（批量汇总）。
func NewProcessor(storage vault.Storage, settings configs.Settings, stats *Stats, log *logrus.Entry) *Processor {
	settings = settings.Validate()

	return &Processor{
		storage:  storage,
		fetcher:  downloader.NewFetcher(time.Duration(settings.TimeoutMs)*time.Millisecond, settings.MaxRetries, log),
		settings: settings,
		ignored:  imageurl.ParseIgnoredDomains(settings.IgnoredDomains),
		stats:    stats,
		log:      log,
	}
}

// matchOutcome 单个匹配的解析结果，按原始下标归位
type matchOutcome struct {
	replacement string
	ok          bool
}

// ProcessText 重写一篇文档。返回新文本和是否发生了改动。
// 所有匹配的下载并发发起，但替换严格按原始出现顺序回填，
// 输出与下载完成顺序无关。只有目标目录创建失败才返回错误，
// 单个匹配的失败只计入统计、原文保留。
func (p *Processor) ProcessText(ctx context.Context, text string) (string, bool, error) {
	refs := scanImageRefs(text)
	if len(refs) == 0 {
		return text, false, nil
	}

	// 先按出现顺序分类：不是图片的不计数，忽略域名的记 skipped，
	// 剩下的才进入下载流水线。
	outcomes := make([]matchOutcome, len(refs))
	var jobs []int
	for i, ref := range refs {
		if !imageurl.IsLikelyImage(ref.url) {
			continue
		}
		p.stats.addTotal()

		if imageurl.MatchesIgnoredDomain(ref.url, p.ignored) {
			p.stats.addSkipped()
			p.log.Debugf("忽略域名命中，跳过: %s", ref.url)
			continue
		}
		jobs = append(jobs, i)
	}

	if len(jobs) == 0 {
		return text, false, nil
	}

	// 目录只在真正需要下载前创建一次
	if err := p.storage.CreateFolder(p.settings.Folder); err != nil {
		// 目录建不出来，本篇文档的所有下载都无从谈起
		for range jobs {
			p.stats.addFailed()
		}
		return text, false, err
	}

	var wg sync.WaitGroup
	for _, i := range jobs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = p.resolve(ctx, refs[i])
		}(i)
	}
	wg.Wait()

	// 单次线性重建，按原始顺序拼接替换结果
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	changed := false
	for i, ref := range refs {
		b.WriteString(text[last:ref.start])
		if outcomes[i].ok {
			b.WriteString(outcomes[i].replacement)
			if outcomes[i].replacement != ref.raw {
				changed = true
			}
		} else {
			b.WriteString(ref.raw)
		}
		last = ref.end
	}
	b.WriteString(text[last:])

	return b.String(), changed, nil
}

// resolve 解析单个匹配：下载→嗅探→转码→命名→落盘，产出替换文本。
// 任何失败都只影响这一个匹配。
func (p *Processor) resolve(ctx context.Context, ref imageRef) matchOutcome {
	data, err := p.fetcher.Download(ctx, ref.url)
	if err != nil {
		p.stats.addFailed()
		p.log.Warnf("图片下载失败: %s: %v", ref.url, err)
		return matchOutcome{}
	}

	// 字节嗅探的结果压过 URL 里声称的扩展名
	sniffed, ok := downloader.SniffExt(data)
	if !ok {
		p.log.Debugf("无法嗅探图片格式，沿用 URL 扩展名: %s", ref.url)
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		p.log.Debugf("filetype 佐证: %s -> %s", ref.url, kind.MIME.Value)
	}
	ext := downloader.ResolveExt(sniffed, imageurl.ExtFromURL(ref.url))

	data, ext = downloader.MaybeConvert(data, ext, downloader.ConvertOptions{
		PNGToJPEG: p.settings.ConvertPNGToJPEG,
		Quality:   p.settings.JPEGQuality,
		MaxWidth:  p.settings.MaxImageWidth,
	}, p.log)

	name := downloader.SynthesizeName(ref.url, data, ext, p.settings.HashNames)
	local := p.settings.Folder + "/" + name

	// 已存在的文件视为已下载好，不重写字节；引用仍然要改写指向本地
	if !p.storage.Exists(local) {
		if err := p.storage.WriteBinary(local, data); err != nil {
			p.stats.addFailed()
			p.log.Errorf("图片写入失败: %s: %v", local, err)
			return matchOutcome{}
		}
	}

	p.stats.addDownloaded()
	return matchOutcome{replacement: "![" + ref.alt + "](" + local + ")", ok: true}
}
