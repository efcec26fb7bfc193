// Package checker holds the network probes behind a riskscan scan.
//
// Architecture overview:
//
//   - ParseTarget normalizes user input into a Target (host, port, absolute URL).
//     It is pure and performs no I/O.
//   - TLSProbe dials the target, completes a handshake and records the leaf
//     certificate as CertificateFacts. Chain verification uses the platform
//     roots; hostname match is informational only.
//   - HeaderProbe issues HEAD (falling back to GET once) and partitions the
//     nine CanonicalHeaders into present and missing.
//   - PreloadChecker asks the HSTS preload list service whether the host, or
//     its www./bare counterpart, is preloaded.
//
// No probe returns an error. Failures are data: an ErrorKind plus message on
// the facts value, so the scan service can always fuse a risk level.
package checker
