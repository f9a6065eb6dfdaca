// Package keyring derives named signing identities from secret URIs such as
// "//Alice". Keys come from a BIP-39 seed walked along the standard Ethereum
// BIP-44 path, so the development accounts are the well-known ones any
// tooling derives from DevPhrase.
package keyring

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// DevPhrase is the well-known development mnemonic used when a URI carries
// only a junction.
const DevPhrase = "bottom drive obey lake curtain smoke basket hold race lonely fit walk"

// DevSeeds are the development identities loaded by default. Each one is the
// account at the same position under accounts.DefaultBaseDerivationPath.
var DevSeeds = []string{"//Alice", "//Bob", "//Charlie", "//Dave", "//Eve", "//Ferdie"}

var devIndex = map[string]uint32{
	"Alice":   0,
	"Bob":     1,
	"Charlie": 2,
	"Dave":    3,
	"Eve":     4,
	"Ferdie":  5,
}

var (
	ErrInvalidSeed     = errors.New("invalid secret uri")
	ErrSoftJunction    = errors.New("soft derivation is not supported for secp256k1 keys")
	ErrUnknownIdentity = errors.New("unknown identity")
	ErrDuplicateName   = errors.New("duplicate identity name")
)

// Pair is a named secp256k1 keypair.
type Pair struct {
	name       string
	uri        string
	path       accounts.DerivationPath
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func (p *Pair) Name() string                  { return p.name }
func (p *Pair) URI() string                   { return p.uri }
func (p *Pair) Path() accounts.DerivationPath { return p.path }
func (p *Pair) Address() common.Address       { return p.address }
func (p *Pair) PrivateKey() *ecdsa.PrivateKey { return p.privateKey }

// PublicKeyHex returns the uncompressed public key without the 0x prefix.
func (p *Pair) PublicKeyHex() string {
	return hex.EncodeToString(crypto.FromECDSAPub(&p.privateKey.PublicKey))
}

// TransactOpts returns signing options for transactions on the given chain.
func (p *Pair) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(p.privateKey, chainID)
}

// Keyring keeps the identities added to it in insertion order.
type Keyring struct {
	pairs  []*Pair
	byName map[string]*Pair
}

func New() *Keyring {
	return &Keyring{byName: make(map[string]*Pair)}
}

// Load creates a keyring holding one pair per URI.
func Load(uris []string) (*Keyring, error) {
	kr := New()
	for _, uri := range uris {
		if _, err := kr.AddFromURI(uri); err != nil {
			return nil, err
		}
	}
	return kr, nil
}

// AddFromURI derives a pair and stores it in the keyring. Adding the same URI
// twice returns the stored pair; a different URI resolving to a name already
// in use is rejected.
func (k *Keyring) AddFromURI(uri string) (*Pair, error) {
	if existing, ok := k.byName[uri]; ok && existing.uri == uri {
		return existing, nil
	}
	pair, err := CreateFromURI(uri)
	if err != nil {
		return nil, err
	}
	if existing, ok := k.byName[pair.name]; ok {
		return nil, fmt.Errorf("%w: %s already belongs to %s", ErrDuplicateName, pair.name, existing.address.Hex())
	}
	k.pairs = append(k.pairs, pair)
	k.byName[pair.uri] = pair
	k.byName[pair.name] = pair
	return pair, nil
}

// Lookup finds a pair by its name ("Bob") or URI ("//Bob").
func (k *Keyring) Lookup(name string) (*Pair, error) {
	if pair, ok := k.byName[name]; ok {
		return pair, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownIdentity, name)
}

func (k *Keyring) Pairs() []*Pair {
	out := make([]*Pair, len(k.pairs))
	copy(out, k.pairs)
	return out
}

// CreateFromURI derives a pair without adding it to any keyring.
//
// The URI grammar is "[phrase][//junction][///password]". The phrase is a
// BIP-39 mnemonic or a 0x-prefixed hex seed and defaults to DevPhrase. The
// junction is a development name or an account index; it defaults to index 0.
// Pairs named after a development identity keep that name, all others are
// named by their address so the phrase never ends up in a name.
func CreateFromURI(uri string) (*Pair, error) {
	phrase, junction, password, err := parseURI(uri)
	if err != nil {
		return nil, err
	}

	seed, err := rootSeed(phrase, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	index, named, err := accountIndex(junction)
	if err != nil {
		return nil, err
	}
	path := make(accounts.DerivationPath, len(accounts.DefaultBaseDerivationPath))
	copy(path, accounts.DefaultBaseDerivationPath)
	path[len(path)-1] = index

	privateKey, err := derive(seed, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	pair := &Pair{
		uri:        uri,
		path:       path,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
	pair.name = pair.address.Hex()
	if named {
		pair.name = junction
	}
	return pair, nil
}

func parseURI(uri string) (phrase, junction, password string, err error) {
	rest, password, _ := strings.Cut(uri, "///")
	if strings.TrimSpace(rest) == "" {
		return "", "", "", fmt.Errorf("%w: empty uri", ErrInvalidSeed)
	}

	phrase, path := rest, ""
	if i := strings.Index(rest, "/"); i >= 0 {
		phrase, path = rest[:i], rest[i:]
	}
	phrase = strings.TrimSpace(phrase)
	if path == "" {
		return phrase, "", password, nil
	}

	if !strings.HasPrefix(path, "//") {
		return "", "", "", ErrSoftJunction
	}
	junction = path[2:]
	if i := strings.Index(junction, "/"); i >= 0 {
		if !strings.HasPrefix(junction[i:], "//") {
			return "", "", "", ErrSoftJunction
		}
		return "", "", "", fmt.Errorf("%w: only one junction is supported", ErrInvalidSeed)
	}
	if junction == "" {
		return "", "", "", fmt.Errorf("%w: empty junction", ErrInvalidSeed)
	}
	return phrase, junction, password, nil
}

func accountIndex(junction string) (index uint32, named bool, err error) {
	if junction == "" {
		return 0, false, nil
	}
	if i, ok := devIndex[junction]; ok {
		return i, true, nil
	}
	n, err := strconv.ParseUint(junction, 10, 31)
	if err != nil {
		return 0, false, fmt.Errorf("%w: unknown junction %q", ErrInvalidSeed, junction)
	}
	return uint32(n), false, nil
}

func rootSeed(phrase, password string) ([]byte, error) {
	if phrase == "" {
		phrase = DevPhrase
	}
	if strings.HasPrefix(phrase, "0x") {
		return hex.DecodeString(phrase[2:])
	}
	if !bip39.IsMnemonicValid(phrase) {
		return nil, errors.New("mnemonic is not valid")
	}
	return bip39.NewSeed(phrase, password), nil
}

func derive(seed []byte, path accounts.DerivationPath) (*ecdsa.PrivateKey, error) {
	// chaincfg params only select the extended key version bytes.
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	for _, index := range path {
		if key, err = key.Derive(index); err != nil {
			return nil, fmt.Errorf("derive %s: %w", path, err)
		}
	}
	privateKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	// Re-import on go-ethereum's curve; its signer rejects foreign curves.
	return crypto.ToECDSA(privateKey.Serialize())
}
