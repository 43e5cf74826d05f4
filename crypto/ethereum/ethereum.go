// Package ethereum provides the secp256k1 key handling used to authenticate
// pool callers, plus the keccak helpers the pool uses to derive its scope,
// labels and withdrawal contexts.
package ethereum

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/privacy-pool/crypto/field"
	"github.com/vocdoni/privacy-pool/util"
)

const (
	// SigningPrefix is the prefix added when hashing a message to sign.
	SigningPrefix = "\u0019Ethereum Signed Message:\n"
	// SignatureLength is the size of an ECDSA signature in bytes.
	SignatureLength = ethcrypto.SignatureLength
	// PubKeyLengthBytes is the size of a compressed public key in bytes.
	PubKeyLengthBytes = 33
	// PubKeyLengthBytesUncompressed is the size of an uncompressed public key.
	PubKeyLengthBytesUncompressed = 65
)

// SignKeys represents an ECDSA pair of keys for signing.
type SignKeys struct {
	Public  ecdsa.PublicKey
	Private ecdsa.PrivateKey
}

// NewSignKeys returns an empty SignKeys, use Generate or AddHexKey to fill it.
func NewSignKeys() *SignKeys {
	return &SignKeys{}
}

// Generate generates new keys.
func (k *SignKeys) Generate() error {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return err
	}
	k.Private = *key
	k.Public = key.PublicKey
	return nil
}

// AddHexKey imports a private key in hex string format.
func (k *SignKeys) AddHexKey(privHex string) error {
	key, err := ethcrypto.HexToECDSA(util.TrimHex(privHex))
	if err != nil {
		return err
	}
	k.Private = *key
	k.Public = key.PublicKey
	return nil
}

// HexString returns the public compressed and private keys as hex strings.
func (k *SignKeys) HexString() (string, string) {
	pubHexComp := fmt.Sprintf("%x", ethcrypto.CompressPubkey(&k.Public))
	privHex := fmt.Sprintf("%x", ethcrypto.FromECDSA(&k.Private))
	return pubHexComp, privHex
}

// PublicKey returns the compressed public key.
func (k *SignKeys) PublicKey() []byte {
	return ethcrypto.CompressPubkey(&k.Public)
}

// PrivateKey returns the private key.
func (k *SignKeys) PrivateKey() *ecdsa.PrivateKey {
	return &k.Private
}

// Address returns the Ethereum address of the keys.
func (k *SignKeys) Address() common.Address {
	return ethcrypto.PubkeyToAddress(k.Public)
}

// AddressString returns the checksummed Ethereum address of the keys.
func (k *SignKeys) AddressString() string {
	return k.Address().String()
}

// SignEthereum signs a message. The message is prefixed with the Ethereum
// signed message prefix and hashed before signing. The returned signature
// has its recovery byte in {0, 1}.
func (k *SignKeys) SignEthereum(message []byte) ([]byte, error) {
	if k.Private.D == nil {
		return nil, fmt.Errorf("no private key available")
	}
	return ethcrypto.Sign(Hash(message), &k.Private)
}

// AddrFromPublicKey standardizes a public key, compressed or not, and
// returns its Ethereum address.
func AddrFromPublicKey(pub []byte) (common.Address, error) {
	var pubKey *ecdsa.PublicKey
	var err error
	switch len(pub) {
	case PubKeyLengthBytes:
		pubKey, err = ethcrypto.DecompressPubkey(pub)
	case PubKeyLengthBytesUncompressed:
		pubKey, err = ethcrypto.UnmarshalPubkey(pub)
	default:
		return common.Address{}, fmt.Errorf("invalid public key length %d", len(pub))
	}
	if err != nil {
		return common.Address{}, err
	}
	return ethcrypto.PubkeyToAddress(*pubKey), nil
}

// AddrFromSignature recovers the Ethereum address that signed the message.
// Both {0, 1} and {27, 28} recovery bytes are accepted.
func AddrFromSignature(message, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(signature))
	}
	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return common.Address{}, fmt.Errorf("invalid signature recovery byte %d", sig[64])
	}
	pubKey, err := ethcrypto.SigToPub(Hash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("sigToPub: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pubKey), nil
}

// Hash returns the keccak256 hash of the message prefixed with the Ethereum
// signed message prefix.
func Hash(data []byte) []byte {
	payload := []byte(fmt.Sprintf("%s%d%s", SigningPrefix, len(data), data))
	return HashRaw(payload)
}

// HashRaw returns the keccak256 hash of data.
func HashRaw(data []byte) []byte {
	return ethcrypto.Keccak256(data)
}

// HashToField returns keccak256(data...) reduced into the BN254 scalar field,
// which is how the pool turns arbitrary preimages into field elements.
func HashToField(data ...[]byte) *big.Int {
	return field.FromBytes(ethcrypto.Keccak256(data...))
}

// HexToAddress parses an address, it fails if the input is not a 20 byte
// hex string.
func HexToAddress(s string) (common.Address, error) {
	b, err := hex.DecodeString(util.TrimHex(s))
	if err != nil {
		return common.Address{}, err
	}
	if len(b) != common.AddressLength {
		return common.Address{}, fmt.Errorf("invalid address length %d", len(b))
	}
	return common.BytesToAddress(b), nil
}
