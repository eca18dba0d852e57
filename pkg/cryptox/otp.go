package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// OTPDigits is the length of emailed verification codes.
const OTPDigits = otp.DigitsSix

// GenerateOTP returns a fresh numeric code of OTPDigits digits. Each code
// is an HOTP value over a throwaway secret and a random counter, so codes
// are uniformly distributed and never derivable from earlier ones.
func GenerateOTP() (string, error) {
	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("cryptox: otp secret: %w", err)
	}
	var counter [8]byte
	if _, err := rand.Read(counter[:]); err != nil {
		return "", fmt.Errorf("cryptox: otp counter: %w", err)
	}

	code, err := hotp.GenerateCodeCustom(
		base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret),
		binary.BigEndian.Uint64(counter[:]),
		hotp.ValidateOpts{Digits: OTPDigits, Algorithm: otp.AlgorithmSHA1},
	)
	if err != nil {
		return "", fmt.Errorf("cryptox: otp code: %w", err)
	}
	return code, nil
}

// FingerprintCode is an HMAC-SHA256 of code keyed with the pepper, as
// base64url. A six digit code space is too small for a bare hash to hide
// the code from someone who can read the store.
func FingerprintCode(code string) string {
	mac := hmac.New(sha256.New, []byte(GetPepper()))
	mac.Write([]byte(code))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
