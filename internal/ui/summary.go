package ui

import (
	"fmt"
	"strings"

	"github.com/KevinTCoughlin/moria-server-manager/internal/status"
)

// InstallSummary holds data for the install completion summary.
type InstallSummary struct {
	SteamCmdDir string
	ServerDir   string
	WorldName   string
	ListenPort  int
	ConfigPath  string
}

// PrintInstallSummary displays the completion summary after install.
func (u *UI) PrintInstallSummary(s *InstallSummary) {
	divider := strings.Repeat("═", 54)

	fmt.Fprintln(u.out)
	fmt.Fprintln(u.out, u.colorize(colorGreen+colorBold, divider))
	fmt.Fprintln(u.out, u.colorize(colorGreen+colorBold, "  Moria Dedicated Server - Installation Complete!"))
	fmt.Fprintln(u.out, u.colorize(colorGreen+colorBold, divider))
	fmt.Fprintln(u.out)

	fmt.Fprintf(u.out, "  %s      %s\n", u.Bold("SteamCMD:"), s.SteamCmdDir)
	fmt.Fprintf(u.out, "  %s  %s\n", u.Bold("Server Dir:"), s.ServerDir)
	fmt.Fprintf(u.out, "  %s    %s\n", u.Bold("Settings:"), s.ConfigPath)
	if s.WorldName != "" {
		fmt.Fprintf(u.out, "  %s       %s\n", u.Bold("World:"), s.WorldName)
	}
	fmt.Fprintf(u.out, "  %s        %d\n", u.Bold("Port:"), s.ListenPort)
	fmt.Fprintln(u.out)

	fmt.Fprintln(u.out, u.colorize(colorCyan+colorBold, "  Quick Start:"))
	fmt.Fprintf(u.out, "    Start server:      %s\n", u.Bold("moria-server-manager start --wait 2m"))
	fmt.Fprintf(u.out, "    Stop server:       %s\n", u.Bold("moria-server-manager stop"))
	fmt.Fprintf(u.out, "    Server status:     %s\n", u.Bold("moria-server-manager status"))
	fmt.Fprintf(u.out, "    Live console:      %s\n", u.Bold("moria-server-manager console"))
	fmt.Fprintf(u.out, "    Edit settings:     %s\n", u.Bold("moria-server-manager ini set WorldName \"My World\""))
	fmt.Fprintf(u.out, "    Backup world:      %s\n", u.Bold("moria-server-manager backup"))
	fmt.Fprintln(u.out)

	fmt.Fprintf(u.out, "  %s Friends join with the invite code shown by %s\n",
		u.colorize(colorYellow+colorBold, "Tip:"),
		u.Bold("moria-server-manager status"))
	fmt.Fprintf(u.out, "       or directly on %s\n", u.Bold(fmt.Sprintf("your IP:%d", s.ListenPort)))
	fmt.Fprintln(u.out)
	fmt.Fprintln(u.out, u.colorize(colorGreen+colorBold, divider))
	fmt.Fprintln(u.out)
}

// PrintSnapshot displays the fields of a status snapshot.
func (u *UI) PrintSnapshot(s status.Snapshot) {
	if s.IsZero() {
		u.Info("  No status reported yet (Status.json missing or unreadable)")
		return
	}
	u.Info("  State:    %s", u.Bold(orDash(s.Status)))
	u.Info("  Invite:   %s", orDash(s.InviteCode))
	u.Info("  Address:  %s", orDash(s.AdvertisedAddressAndPort))
	if s.HasWorld() {
		u.Info("  World:    %s (seed %d)", orDash(s.WorldName), s.WorldSeed)
	} else {
		u.Info("  World:    none loaded")
	}
	u.Info("  Players:  %s", orDash(s.Players))
	u.Info("  Version:  %s", orDash(s.Version))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
