package revocationhint

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/crypto/ocsp"
)

// FetchOCSP builds an OCSP request for cert (issued by issuer) and fetches
// the response using the RFC 6960 Appendix A.1 GET-form binding: the
// base64-encoded request is appended to serverURL as a path segment,
// rather than posted as a request body (as the teacher's
// performExternalOCSPCheck does), so responses can be transparently
// cached by an intermediary.
func FetchOCSP(ctx context.Context, client *http.Client, serverURL string, cert, issuer *x509.Certificate) (*ocsp.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	reqBytes, err := ocsp.CreateRequest(cert, issuer, nil)
	if err != nil {
		return nil, fmt.Errorf("build OCSP request: %w", err)
	}

	url := strings.TrimSuffix(serverURL, "/") + "/" + base64.StdEncoding.EncodeToString(reqBytes)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact OCSP server %s: %w", serverURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCSP server %s returned status %d", serverURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read OCSP response from %s: %w", serverURL, err)
	}
	return ocsp.ParseResponse(body, issuer)
}
