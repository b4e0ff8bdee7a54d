package weights

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

// networkPattern keeps network names usable inside C++ identifiers and file names
var networkPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var headerTemplate = template.Must(template.New("bootstrap_weights").Parse(`#pragma once

#include <string>
#include <vector>
namespace nano::weights
{
// Bootstrap weights for {{.Network}} network
std::vector<std::pair<std::string, std::string>> preconfigured_weights_{{.Network}} = {
{{- range .Accepted}}
	{ "{{.Account}}", "{{.Weight}}" },
{{- end}}
};
uint64_t max_blocks_{{.Network}} = {{.CutoffHeight}};
}
`))

// ValidateNetwork rejects names that cannot be embedded in an identifier
func ValidateNetwork(network string) error {
	if !networkPattern.MatchString(network) {
		return fmt.Errorf("%w: %q", ErrInvalidNetwork, network)
	}
	return nil
}

// FileName returns the header file name for network
func FileName(network string) string {
	return "bootstrap_weights_" + network + ".hpp"
}

// SerializeSnapshot renders the accepted representatives and cutoff height as a
// C++ header. Weights are emitted as exact decimal strings.
func SerializeSnapshot(w io.Writer, network string, result Result) error {
	if err := ValidateNetwork(network); err != nil {
		return err
	}

	for _, rep := range result.Accepted {
		if rep.Account == "" || strings.ContainsAny(rep.Account, "\"\\\r\n") {
			return fmt.Errorf("%w: %q cannot be embedded in a string literal", ErrInvalidAccount, rep.Account)
		}
	}

	return headerTemplate.Execute(w, struct {
		Network      string
		Accepted     []Representative
		CutoffHeight uint64
	}{
		Network:      network,
		Accepted:     result.Accepted,
		CutoffHeight: result.CutoffHeight,
	})
}

// WriteSnapshot renders the header into dir, replacing any previous file for the
// network, and returns the written path. The file is swapped in by rename, so
// readers never see a partially written header.
func WriteSnapshot(dir, network string, result Result) (string, error) {
	var buf bytes.Buffer
	if err := SerializeSnapshot(&buf, network, result); err != nil {
		return "", err
	}

	if dir == "" {
		dir = DefaultOutDir
	}
	path := filepath.Join(dir, FileName(network))

	tmp, err := os.CreateTemp(dir, ".bootstrap_weights_*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // No-op once renamed

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	return path, nil
}
