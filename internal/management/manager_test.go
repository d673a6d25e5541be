package management_test

import (
	"github.com/KevinTCoughlin/moria-server-manager/internal/management"
	"github.com/KevinTCoughlin/moria-server-manager/internal/platform"
)

// Compile-time interface compliance checks.
var _ management.ServerManager = (*management.Controller)(nil)

// Verify NewController returns a type satisfying the interface.
var _ management.ServerManager = management.NewController(platform.NewMockProcessTable(), platform.NewMockLauncher(), nil)
