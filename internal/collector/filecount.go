package collector

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// originalDirName 永远排除在计数之外的目录名
const originalDirName = "Original"

// FileCounter 网络共享上的文件计数器
// 每台设备对应共享根目录下的一个子目录（H1..H10）
type FileCounter struct {
	basePath string
	logger   *zap.Logger
}

// NewFileCounter 创建文件计数器
func NewFileCounter(basePath string, logger *zap.Logger) *FileCounter {
	return &FileCounter{
		basePath: basePath,
		logger:   logger,
	}
}

// BasePath 返回共享根目录
func (f *FileCounter) BasePath() string {
	return f.basePath
}

// IsConnected 检查共享是否可访问
func (f *FileCounter) IsConnected() bool {
	if _, err := os.Stat(f.basePath); err != nil {
		f.logger.Warn("Share path not accessible",
			zap.String("path", f.basePath),
			zap.Error(err),
		)
		return false
	}
	return true
}

// CountFiles 统计目录下文件名包含 pattern（不区分大小写）的文件数
// directory 为空时统计整个共享；名为 Original 的目录整棵跳过；
// 路径不存在按 0 处理并告警
func (f *FileCounter) CountFiles(directory, pattern string) int {
	searchPath := f.basePath
	if directory != "" {
		searchPath = filepath.Join(f.basePath, directory)
	}

	if _, err := os.Stat(searchPath); err != nil {
		f.logger.Warn("Path does not exist",
			zap.String("path", searchPath),
		)
		return 0
	}

	upperPattern := strings.ToUpper(pattern)
	count := 0
	err := filepath.WalkDir(searchPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			f.logger.Warn("Error walking directory",
				zap.String("path", path),
				zap.Error(err),
			)
			return nil
		}
		if d.IsDir() {
			if d.Name() == originalDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if upperPattern == "" || strings.Contains(strings.ToUpper(d.Name()), upperPattern) {
			count++
		}
		return nil
	})
	if err != nil {
		f.logger.Error("Error counting files",
			zap.String("path", searchPath),
			zap.Error(err),
		)
		return 0
	}

	return count
}
