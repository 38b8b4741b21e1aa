package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandomString 生成 n 位十六进制随机串，用于上传文件名去重
func GenerateRandomString(n int) string {
	bytes := make([]byte, (n+1)/2)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return hex.EncodeToString(bytes)[:n]
}
