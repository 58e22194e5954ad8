package pairing

import (
	"net/url"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
)

const deepLinkHost = "pair"

// BuildDeepLink renders scheme://pair?pid=..&code=.. for QR codes and share
// sheets.
func BuildDeepLink(scheme, pairingID, code string) string {
	u := url.URL{
		Scheme:   scheme,
		Host:     deepLinkHost,
		RawQuery: url.Values{"pid": {pairingID}, "code": {code}}.Encode(),
	}
	return u.String()
}

// ParseDeepLink extracts the pairing id and code. Any scheme is accepted so
// links rendered by older builds keep working.
func ParseDeepLink(link string) (pairingID, code string, err error) {
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host != deepLinkHost {
		return "", "", domain.ErrPairingNotFound
	}
	q := u.Query()
	pairingID, code = q.Get("pid"), q.Get("code")
	if pairingID == "" || code == "" {
		return "", "", domain.ErrPairingNotFound
	}
	return pairingID, code, nil
}
