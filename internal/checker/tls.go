package checker

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"net"
	"time"

	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
)

// versionSSL30 represents the legacy SSL 3.0 protocol version (0x0300).
// Defined locally so we can report SSL 3.0 without referencing the
// deprecated tls.VersionSSL30 symbol.
const versionSSL30 uint16 = 0x0300

// attributeKeys names the distinguished-name attributes we expect on web PKI certificates.
var attributeKeys = map[string]string{
	"2.5.4.3":              "commonName",
	"2.5.4.5":              "serialNumber",
	"2.5.4.6":              "countryName",
	"2.5.4.7":              "localityName",
	"2.5.4.8":              "stateOrProvinceName",
	"2.5.4.9":              "streetAddress",
	"2.5.4.10":             "organizationName",
	"2.5.4.11":             "organizationalUnitName",
	"2.5.4.17":             "postalCode",
	"1.2.840.113549.1.9.1": "emailAddress",
}

// DNAttribute is one attribute of a distinguished name, in certificate order.
type DNAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CertificateFacts is everything the TLS probe learned about a target.
type CertificateFacts struct {
	Issuer         []DNAttribute `json:"issuer,omitempty"`
	IssuerDN       string        `json:"issuer_dn,omitempty"`
	Subject        []DNAttribute `json:"subject,omitempty"`
	SubjectDN      string        `json:"subject_dn,omitempty"`
	SANs           []string      `json:"sans,omitempty"`
	NotAfter       time.Time     `json:"not_after,omitempty"`
	Valid          bool          `json:"valid"`
	TLSVersion     string        `json:"tls_version,omitempty"`
	CipherSuite    string        `json:"cipher_suite,omitempty"`
	KeySize        int           `json:"key_size,omitempty"`
	HTTPSSupported bool          `json:"https_supported"`
	HostnameMatch  bool          `json:"hostname_match"`
	ErrorKind      ErrorKind     `json:"error_kind,omitempty"`
	ErrorMessage   string        `json:"error,omitempty"`
}

// Failed reports whether the probe recorded an error.
func (f CertificateFacts) Failed() bool {
	return f.ErrorKind != ErrorKindNone
}

// TLSProbe opens a raw TLS connection and inspects the peer certificate.
type TLSProbe struct {
	Timeout time.Duration
	// RootCAs overrides the platform trust store; nil uses the system roots.
	RootCAs *x509.CertPool

	now func() time.Time
}

// Probe connects to target and never returns an error: failures are recorded
// in the returned facts with HTTPSSupported and Valid set to false.
func (p *TLSProbe) Probe(ctx context.Context, target Target) CertificateFacts {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = consts.DefaultTLSTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	deadline, _ := ctx.Deadline()

	dialer := &net.Dialer{Timeout: timeout, Deadline: deadline}
	rawConn, err := dialer.DialContext(ctx, "tcp", target.Address())
	if err != nil {
		return failedFacts(ClassifyError(err), err)
	}
	defer rawConn.Close()

	// Socket-level bound for the handshake, independent of context plumbing.
	if err := rawConn.SetDeadline(deadline); err != nil {
		return failedFacts(ErrorKindOtherNetworkFailure, err)
	}

	now := p.clock()
	var leaf *x509.Certificate
	cfg := &tls.Config{
		ServerName: target.Host,
		// Chain verification happens in VerifyConnection so hostname mismatch stays informational.
		InsecureSkipVerify: true, // #nosec G402 -- peer chain is verified against RootCAs below.
		MinVersion:         tls.VersionTLS10,
		VerifyConnection: func(cs tls.ConnectionState) error {
			if len(cs.PeerCertificates) == 0 {
				return errors.New("tls: server presented no certificate")
			}
			leaf = cs.PeerCertificates[0]
			return verifyChain(cs.PeerCertificates, p.RootCAs, now)
		},
	}

	conn := tls.Client(rawConn, cfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		kind := ClassifyError(err)
		if kind != ErrorKindTimeout {
			kind = ErrorKindTLSHandshake
		}
		facts := failedFacts(kind, err)
		if leaf != nil {
			describeCertificate(&facts, leaf, target.Host)
		}
		return facts
	}

	state := conn.ConnectionState()
	facts := CertificateFacts{
		HTTPSSupported: true,
		TLSVersion:     tlsVersionString(state.Version),
		CipherSuite:    cipherSuiteString(state.CipherSuite),
	}
	if len(state.PeerCertificates) > 0 {
		describeCertificate(&facts, state.PeerCertificates[0], target.Host)
		facts.Valid = !facts.NotAfter.IsZero() && facts.NotAfter.After(now)
	}

	return facts
}

func (p *TLSProbe) clock() time.Time {
	if p.now != nil {
		return p.now().UTC()
	}
	return time.Now().UTC()
}

func verifyChain(certs []*x509.Certificate, roots *x509.CertPool, now time.Time) error {
	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: x509.NewCertPool(),
		CurrentTime:   now,
	}
	for _, cert := range certs[1:] {
		opts.Intermediates.AddCert(cert)
	}
	if _, err := certs[0].Verify(opts); err != nil {
		return &tls.CertificateVerificationError{UnverifiedCertificates: certs, Err: err}
	}
	return nil
}

func failedFacts(kind ErrorKind, err error) CertificateFacts {
	return CertificateFacts{
		HTTPSSupported: false,
		Valid:          false,
		ErrorKind:      kind,
		ErrorMessage:   err.Error(),
	}
}

// describeCertificate copies the informational certificate fields into facts.
// It never sets Valid; only a verified handshake can do that.
func describeCertificate(facts *CertificateFacts, cert *x509.Certificate, host string) {
	facts.Issuer = distinguishedName(cert.Issuer)
	facts.IssuerDN = cert.Issuer.String()
	facts.Subject = distinguishedName(cert.Subject)
	facts.SubjectDN = cert.Subject.String()
	facts.SANs = append([]string(nil), cert.DNSNames...)
	facts.NotAfter = cert.NotAfter.UTC()
	facts.KeySize = publicKeySize(cert.PublicKey)
	facts.HostnameMatch = cert.VerifyHostname(host) == nil
}

func distinguishedName(name pkix.Name) []DNAttribute {
	attrs := make([]DNAttribute, 0, len(name.Names))
	for _, atv := range name.Names {
		key, ok := attributeKeys[atv.Type.String()]
		if !ok {
			key = atv.Type.String()
		}
		attrs = append(attrs, DNAttribute{Key: key, Value: fmt.Sprint(atv.Value)})
	}
	return attrs
}

// publicKeySize returns the key size in bits, or 0 for unknown key types.
func publicKeySize(pub any) int {
	switch key := pub.(type) {
	case *rsa.PublicKey:
		return key.N.BitLen()
	case *ecdsa.PublicKey:
		if key.Curve == nil {
			return 0
		}
		return key.Curve.Params().BitSize
	case ed25519.PublicKey:
		return 256
	}
	return 0
}

// tlsVersionString converts TLS version constant to string
func tlsVersionString(version uint16) string {
	switch version {
	case versionSSL30:
		return "SSL 3.0"
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("Unknown (0x%04x)", version)
	}
}

// cipherSuiteNames covers every suite crypto/tls implements, insecure ones included.
var cipherSuiteNames = func() map[uint16]string {
	names := make(map[uint16]string)
	for _, suites := range [][]*tls.CipherSuite{tls.CipherSuites(), tls.InsecureCipherSuites()} {
		for _, cs := range suites {
			names[cs.ID] = cs.Name
		}
	}
	return names
}()

// cipherSuiteString converts cipher suite constant to string
func cipherSuiteString(suite uint16) string {
	if name, ok := cipherSuiteNames[suite]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%04x)", suite)
}
