package engine

// BucketResolution is the number of rollout slots. Percentages map onto it
// as percentage * (BucketResolution / 100).
const BucketResolution = 10000

// MurmurHash3 (32-bit), the deterministic hash behind rollout bucketing.
// Given the same flag key + targeting key, a user always lands in the same
// bucket, across processes and evaluator instances.
func murmur3_32(data []byte, seed uint32) uint32 {
	const (
		c1 = 0xcc9e2d51
		c2 = 0x1b873593
	)

	h := seed
	nblocks := len(data) / 4

	// body
	for i := 0; i < nblocks; i++ {
		k := uint32(data[i*4]) |
			uint32(data[i*4+1])<<8 |
			uint32(data[i*4+2])<<16 |
			uint32(data[i*4+3])<<24

		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2

		h ^= k
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
	}

	// tail
	tail := data[nblocks*4:]
	var k1 uint32
	switch len(tail) {
	case 3:
		k1 ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k1 ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k1 ^= uint32(tail[0])
		k1 *= c1
		k1 = (k1 << 15) | (k1 >> 17)
		k1 *= c2
		h ^= k1
	}

	// finalization
	h ^= uint32(len(data))
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h
}

// Bucket returns a rollout slot in [0, BucketResolution) for the given flag
// key and targeting key. The flag key is part of the hash input so rollout
// membership is independent across flags for the same user.
func Bucket(flagKey, targetingKey string) int {
	h := murmur3_32([]byte(flagKey+":"+targetingKey), 0)
	return int(h % BucketResolution)
}

// InRollout checks if the targeting key falls within the rollout percentage.
// percentage<=0 never matches, percentage>=100 always matches.
func InRollout(flagKey, targetingKey string, percentage int) bool {
	if percentage <= 0 {
		return false
	}
	if percentage >= 100 {
		return true
	}
	return Bucket(flagKey, targetingKey) < percentage*(BucketResolution/100)
}
