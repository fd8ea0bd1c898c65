package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/stockbell/internal/build"
)

const releaseRepo = "shaharia-lab/stockbell"

// NewUpdateCmd returns the "update" subcommand that self-updates the binary.
func NewUpdateCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update stockbell to the latest release",
		Long:  "Check GitHub releases for a newer version of stockbell and update the binary in place.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpdate(cmd.Context(), yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

// currentVersion parses the build version. Dev and untagged builds cannot
// be updated.
func currentVersion(v string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("cannot update build %q; install a tagged release first", v)
	}
	return parsed, nil
}

func runUpdate(ctx context.Context, skipConfirm bool) error {
	current, err := currentVersion(build.Version)
	if err != nil {
		return err
	}

	fmt.Printf("Current version: %s\n", current)
	fmt.Print("Checking for updates... ")

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return fmt.Errorf("creating updater: %w", err)
	}

	release, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(releaseRepo))
	if err != nil {
		return fmt.Errorf("checking for updates: %w", err)
	}

	if !found || !release.GreaterThan(current.String()) {
		fmt.Println("already up to date.")
		return nil
	}

	fmt.Printf("found %s\n", release.Version())

	if !skipConfirm {
		fmt.Printf("Update to %s? [y/N] ", release.Version())
		var input string
		fmt.Scanln(&input) //nolint:errcheck,gosec
		if input != "y" && input != "Y" {
			fmt.Println("Update canceled.")
			return nil
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("finding current executable: %w", err)
	}

	fmt.Printf("Updating to %s...\n", release.Version())
	if err := updater.UpdateTo(ctx, release, exe); err != nil {
		return fmt.Errorf("updating: %w", err)
	}

	fmt.Printf("Updated to %s. Restart stockbell to use the new version.\n", release.Version())
	return nil
}
