package certificate

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/iliyamo/citizen-services/internal/model"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var applicationPrefixes = map[string]string{
	model.ServiceRevenue:       "REV",
	model.ServiceEducation:     "EDU",
	model.ServiceNaanMudhalvan: "NM",
}

// ApplicationNumber returns the citizen-facing application number: the
// service prefix followed by the last six digits of the millisecond
// timestamp.  Unknown service types use APP.
func ApplicationNumber(serviceType string, now time.Time) string {
	prefix, ok := applicationPrefixes[serviceType]
	if !ok {
		prefix = "APP"
	}
	return fmt.Sprintf("%s%06d", prefix, now.UnixMilli()%1000000)
}

// CertificateNumber returns TYPE/yyyy/MM/XXXXXX where TYPE is the first two
// letters of the certificate type.
func CertificateNumber(certType string, now time.Time) string {
	code := strings.ToUpper(certType)
	if len(code) > 2 {
		code = code[:2]
	}
	return fmt.Sprintf("%s/%04d/%02d/%s", code, now.Year(), int(now.Month()), randomBase36(6))
}

// DigitalSignature returns an opaque token printed on the certificate.  It
// is not verifiable.
func DigitalSignature() string {
	return "DIGITAL_SIGNATURE_" + randomBase36(13)
}

func randomBase36(n int) string {
	max := big.NewInt(int64(len(base36)))
	b := make([]byte, n)
	for i := range b {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand: %v", err))
		}
		b[i] = base36[v.Int64()]
	}
	return string(b)
}
