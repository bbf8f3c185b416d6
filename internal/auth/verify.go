package auth

import (
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

const personalSignPrefix = "\x19Ethereum Signed Message:\n"

// VerifySignature reports whether signature is a valid personal_sign
// signature over message produced by the private key controlling address.
// Malformed input is treated as "not verified", never as a fatal error.
func VerifySignature(address, message, signature string) bool {
	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return false
	}
	return strings.EqualFold(recovered, strings.TrimSpace(address))
}

// RecoverAddress derives the signing address from a personal_sign signature.
func RecoverAddress(message, signature string) (string, error) {
	sig, err := decodeHex(signature)
	if err != nil {
		return "", err
	}
	if len(sig) != 65 {
		return "", errors.New("signature must be 65 bytes")
	}

	// Wallets emit r||s||v with v in {27,28}; RecoverCompact wants the
	// recovery flag first.
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return "", errors.New("invalid recovery id")
	}
	compact := make([]byte, 65)
	compact[0] = v + 27
	copy(compact[1:], sig[:64])

	digest := Keccak256([]byte(personalSignPrefix + strconv.Itoa(len(message)) + message))
	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return "", err
	}

	raw := pub.SerializeUncompressed()
	sum := Keccak256(raw[1:])
	return "0x" + hex.EncodeToString(sum[12:]), nil
}

// IsHexAddress reports whether s is a syntactically valid account address.
func IsHexAddress(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	s = s[2:]
	if len(s) != 40 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// NormalizeAddress lower-cases an address for storage and comparison.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Keccak256 computes the legacy Keccak-256 digest used by EVM tooling.
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	return hex.DecodeString(s)
}
