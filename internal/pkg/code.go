package pkg

import (
	cryptoRand "crypto/rand"
	"math/big"
	"strings"
)

const (
	InviteCodeLength = 6
	// URL-safe, without the look-alikes 0/O and 1/I/l.
	inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// RandCode 生成 n 位随机码
func RandCode(n int, alphabet string) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		x, err := cryptoRand.Int(cryptoRand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[x.Int64()])
	}
	return b.String(), nil
}

func InviteCode() (string, error) {
	return RandCode(InviteCodeLength, inviteAlphabet)
}

func IsInviteCode(s string) bool {
	if len(s) != InviteCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(inviteAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
