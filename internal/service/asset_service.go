package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"minigame_backend/internal/config"
	"minigame_backend/internal/util"
	"minigame_backend/pkg/logger"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// AssetService 管理游戏资源文件的整个生命周期：按游戏 id 命名空间落盘，
// 编辑后回收不再引用的文件，删除游戏时全量清理。
// 返回给调用方的引用是对象键（不含存储端点），同一个键用于展示和删除。
type AssetService struct {
	Storage *StorageService
	Cfg     *config.Config
}

func NewAssetService(storage *StorageService, cfg *config.Config) *AssetService {
	return &AssetService{Storage: storage, Cfg: cfg}
}

// objectKey 在命名空间下生成不重复的对象键，如
// game/spell-the-word/<gameID>/20260828104500_a1b2c3.png
func (s *AssetService) objectKey(namespace, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s/%s_%s%s",
		namespace, time.Now().Format("20060102150405"), util.GenerateRandomString(6), ext)
}

// StoreImage 校验并上传一张词条图片，返回对象键
func (s *AssetService) StoreImage(ctx context.Context, namespace string, file *multipart.FileHeader) (string, error) {
	if file.Size > s.Cfg.Game.MaxImageSize {
		return "", util.NewValidationError("image %q exceeds the size limit", file.Filename)
	}
	if !util.HasAllowedExtension(file.Filename, util.AllowedImageExtensions) {
		return "", util.NewValidationError("file %q is not a supported image format", file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeImage})
	if err != nil {
		return "", util.NewValidationError("file %q is not a valid image", file.Filename)
	}
	// 重置读取指针
	if seeker, ok := src.(io.Seeker); ok {
		seeker.Seek(0, io.SeekStart)
	}

	key := s.objectKey(namespace, file.Filename)
	if _, err := s.Storage.Upload(ctx, key, src, file.Size, mimeType); err != nil {
		return "", err
	}
	return key, nil
}

// StoreThumbnail 封面图与词条图片走同样的规则
func (s *AssetService) StoreThumbnail(ctx context.Context, namespace string, file *multipart.FileHeader) (string, error) {
	return s.StoreImage(ctx, namespace, file)
}

// StoreAudio 校验并上传一个词条音频。音频先落到临时目录探测时长，
// 超出配置上限的直接拒绝，然后从本地文件上传。
func (s *AssetService) StoreAudio(ctx context.Context, namespace string, file *multipart.FileHeader) (string, error) {
	if file.Size > s.Cfg.Game.MaxAudioSize {
		return "", util.NewValidationError("audio %q exceeds the size limit", file.Filename)
	}
	if !util.HasAllowedExtension(file.Filename, util.AllowedAudioExtensions) {
		return "", util.NewValidationError("file %q is not a supported audio format", file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeAudio, "application/ogg", util.MimeOctetStream})
	if err != nil || !util.IsAudio(mimeType) {
		return "", util.NewValidationError("file %q is not a valid audio file", file.Filename)
	}
	if seeker, ok := src.(io.Seeker); ok {
		seeker.Seek(0, io.SeekStart)
	}

	// 临时保存到本地进行时长探测
	tempDir := filepath.Join(s.Cfg.Storage.LocalPath, "temp")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	tempPath := filepath.Join(tempDir, fmt.Sprintf("temp_audio_%d%s", time.Now().UnixNano(), ext))
	defer os.Remove(tempPath)

	out, err := os.Create(tempPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", err
	}
	out.Close()

	if s.Cfg.Game.MaxAudioSeconds > 0 {
		duration, err := probeDuration(tempPath)
		if err != nil {
			return "", util.NewValidationError("file %q is not a playable audio file", file.Filename)
		}
		if duration > s.Cfg.Game.MaxAudioSeconds {
			return "", util.NewValidationError("audio %q is longer than %.0f seconds", file.Filename, s.Cfg.Game.MaxAudioSeconds)
		}
	}

	key := s.objectKey(namespace, file.Filename)
	if _, err := s.Storage.UploadFile(ctx, key, tempPath, mimeType); err != nil {
		return "", err
	}
	return key, nil
}

// Reconcile 对比编辑前后的引用集合，删除不再被引用的文件。
// 删除失败只记录日志：孤儿文件可以被下一次编辑或删除兜底回收。
func (s *AssetService) Reconcile(ctx context.Context, oldRefs, newRefs []string) {
	for _, ref := range OrphanedAssets(oldRefs, newRefs) {
		if err := s.Storage.Delete(ctx, ref); err != nil {
			logger.Log.Warn("failed to delete orphaned asset",
				zap.String("ref", ref), zap.Error(err))
		}
	}
}

// Purge 删除游戏名下的全部资源文件
func (s *AssetService) Purge(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.Storage.Delete(ctx, ref); err != nil {
			logger.Log.Warn("failed to purge asset",
				zap.String("ref", ref), zap.Error(err))
		}
	}
}

// OrphanedAssets 纯集合差：出现在 oldRefs 但不在 newRefs 中的引用。
// 两边都出现的引用原样保留，既不重传也不删除。
func OrphanedAssets(oldRefs, newRefs []string) []string {
	kept := make(map[string]bool, len(newRefs))
	for _, ref := range newRefs {
		if ref != "" {
			kept[ref] = true
		}
	}

	var orphans []string
	seen := make(map[string]bool, len(oldRefs))
	for _, ref := range oldRefs {
		if ref == "" || kept[ref] || seen[ref] {
			continue
		}
		seen[ref] = true
		orphans = append(orphans, ref)
	}
	return orphans
}

// probeDuration 用 ffprobe 读取媒体时长（秒）
func probeDuration(path string) (float64, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, err
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(probe.Format.Duration, 64)
}
