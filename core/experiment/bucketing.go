package experiment

import (
	"crypto/md5"
	"encoding/hex"
	"math/big"
)

// StableBucketingHashGroup buckets a user into one of groupCount groups for
// the named experiment. The assignment is stable: it depends only on the
// group name and the username, never on time or ordering.
func StableBucketingHashGroup(groupName string, groupCount int, username string) int {
	if groupCount <= 0 {
		return 0
	}
	sum := md5.Sum([]byte(groupName + username))
	digest := new(big.Int)
	digest.SetString(hex.EncodeToString(sum[:]), 16)
	return int(new(big.Int).Mod(digest, big.NewInt(int64(groupCount))).Int64())
}
