package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	domainTarget = "expandtest/target/v1"
	domainSuite  = "expandtest/suite/v1"
)

// shortHashLen keeps directory and binary names readable while staying
// collision-resistant for the file counts a test suite realistically has.
const shortHashLen = 12

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// targetID derives the stable identity fragment of a synthetic binary target
// from the test file's path.
func targetID(path string) string {
	return hashWithDomain(domainTarget, []byte(path))[:shortHashLen]
}

// suiteID derives the stable identity fragment of a suite from the host
// package name and the full ordered file set.
func suiteID(hostName string, paths []string) string {
	data := []byte(hostName)
	for _, path := range paths {
		data = append(data, 0x00)
		data = append(data, path...)
	}
	return hashWithDomain(domainSuite, data)[:shortHashLen]
}
