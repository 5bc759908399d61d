package wal

import "hash/crc32"

func crc32sum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

func crc32valid(data []byte, sum uint32) bool {
	return crc32sum(data) == sum
}
