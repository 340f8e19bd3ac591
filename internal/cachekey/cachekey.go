// Package cachekey 将图片 URL 映射为磁盘与内存两级缓存共用的 key。
package cachekey

import (
	"crypto"
	_ "crypto/md5" // 注册 crypto.MD5
	"encoding/hex"
	"hash/fnv"
	"strconv"
)

// Digest 为主路径使用的摘要算法。
const Digest = crypto.MD5

// Derive 返回 URL 的 32 位小写十六进制 MD5 摘要，可直接作为文件名。
func Derive(url string) string {
	key, _ := DeriveWith(Digest, url)
	return key
}

// DeriveWith 使用指定摘要生成 key；摘要未链接进二进制时退回 FNV-1a，
// 第二个返回值为 true 表示走了碰撞抗性更弱的降级路径，调用方应记录告警。
func DeriveWith(h crypto.Hash, url string) (string, bool) {
	if h.Available() {
		hasher := h.New()
		hasher.Write([]byte(url))
		return hex.EncodeToString(hasher.Sum(nil)), false
	}
	return fallbackKey(url), true
}

// fallbackKey 输出 32 位 FNV-1a 的有符号十进制文本，只含数字与 '-'，仍可作文件名。
func fallbackKey(url string) string {
	hasher := fnv.New32a()
	hasher.Write([]byte(url))
	return strconv.FormatInt(int64(int32(hasher.Sum32())), 10)
}
