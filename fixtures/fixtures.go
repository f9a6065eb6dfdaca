package fixtures

import (
	_ "embed"
)

//go:embed abi/EpochProxy.json
var EpochProxyABI string

//go:embed abi/Epoch.json
var EpochABI string

//go:embed abi/RegistryProxy.json
var RegistryProxyABI string

//go:embed abi/Registry.json
var RegistryABI string

//go:embed config/config.yaml.template
var ConfigTemplate []byte
