package utils

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"
)

// JWK is a single RSA public verification key in JSON Web Key format
type JWK struct {
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Kid string `json:"kid"`
}

// JWKS is a rotatable key set served to external verifiers
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// BuildJWKS converts the RSA public key into a JWKS document so other
// services can verify access tokens without calling back into this one.
func BuildJWKS(pub *rsa.PublicKey, kid string) JWKS {
	return JWKS{
		Keys: []JWK{
			{
				Kty: "RSA",
				N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
				Alg: "RS256",
				Use: "sig",
				Kid: kid,
			},
		},
	}
}
