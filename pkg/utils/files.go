package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gochip8/pkg/asm"
	"gochip8/pkg/cpu"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// IsSource reports whether path names assembler source rather than a
// program image.
func IsSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asm", ".s", ".c8s":
		return true
	}
	return false
}

// LoadProgram reads a program image, assembling it first when path is
// assembler source.
func LoadProgram(path string) ([]byte, error) {
	fullPath, _, err := GetPathInfo(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}

	if IsSource(fullPath) {
		program, _, err := asm.Assemble(string(data))
		if err != nil {
			return nil, fmt.Errorf("assembling %s: %w", filepath.Base(fullPath), err)
		}
		return program, nil
	}

	if len(data) > cpu.MaxProgram {
		return nil, fmt.Errorf("%w: %s is %d bytes", cpu.ErrProgramTooLarge, filepath.Base(fullPath), len(data))
	}
	return data, nil
}
