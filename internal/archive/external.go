package archive

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"zipvault/internal/config"
	"zipvault/internal/walker"
)

// listfileRetrySignal is 7-Zip's diagnostic for a listfile it could not
// decode. Seeing it in the captured output of a failed run triggers the
// one-shot UTF-16LE retry.
const listfileRetrySignal = "Incorrect item in listfile"

// ExternalZip drives the 7-Zip CLI to produce a ZIP archive with
// multithreaded Deflate.
type ExternalZip struct {
	Tool string
}

func (s ExternalZip) Create(entries iter.Seq[walker.Entry], cfg config.Config, outPath string) error {
	buildArgs := func(listFile string, enc listEncoding) []string {
		args := []string{
			"a",
			"-tzip",
			fmt.Sprintf("-mx=%d", cfg.ZipLevel),
			"-mm=Deflate",
			"-mmt=on",
			enc.scsFlag,
			"-spf2", // full unicode paths
			outPath,
			"@" + listFile,
		}
		return append(args, exclusionArgs(cfg.ExcludedDirs)...)
	}
	return runWithEncodingRetry(s.Tool, entries, outPath, buildArgs)
}

// ExternalSevenZip drives the 7-Zip CLI to produce a .7z archive:
// LZMA2, multithreaded, solid blocks for better ratio at the cost of
// random access.
type ExternalSevenZip struct {
	Tool string
}

func (s ExternalSevenZip) Create(entries iter.Seq[walker.Entry], cfg config.Config, outPath string) error {
	buildArgs := func(listFile string, enc listEncoding) []string {
		args := []string{
			"a",
			"-t7z",
			"-m0=LZMA2",
			fmt.Sprintf("-mx=%d", cfg.SevenZipLevel),
			"-mmt=on",
			"-ms=on", // solid blocks
			enc.scsFlag,
			"-spf2",
			outPath,
			"@" + listFile,
		}
		return append(args, exclusionArgs(cfg.ExcludedDirs)...)
	}
	return runWithEncodingRetry(s.Tool, entries, outPath, buildArgs)
}

// exclusionArgs emits two recursive exclusion rules per excluded root:
// the absolute path, and a name pattern as a safety net for tools whose
// absolute-path exclusion syntax is imperfect.
func exclusionArgs(excluded []string) []string {
	args := make([]string, 0, len(excluded)*2)
	for _, ex := range excluded {
		args = append(args,
			"-xr!"+ex,
			"-xr!*"+filepath.Base(ex)+"*",
		)
	}
	return args
}

// runWithEncodingRetry writes a UTF-8 listfile, invokes the tool, and
// retries exactly once with a UTF-16LE listfile when the tool rejects
// the listfile encoding. Both listfiles are removed before returning,
// on every path. The entry sequence is iterated once per listfile
// written.
func runWithEncodingRetry(tool string, entries iter.Seq[walker.Entry], outPath string, buildArgs func(listFile string, enc listEncoding) []string) error {
	listFile := outPath + ".list.txt"
	defer removeListFile(listFile)

	if err := writeListFile(listFile, entries, listUTF8); err != nil {
		return err
	}
	err := invoke(tool, buildArgs(listFile, listUTF8))
	if err == nil {
		return nil
	}

	var processErr *ProcessError
	if !errors.As(err, &processErr) || !strings.Contains(processErr.Output, listfileRetrySignal) {
		return err
	}

	log.Warn().Str("tool", tool).Msg("listfile rejected, retrying with UTF-16LE listfile")
	retryFile := outPath + ".list-utf16.txt"
	defer removeListFile(retryFile)

	if err := writeListFile(retryFile, entries, listUTF16LE); err != nil {
		return err
	}
	return invoke(tool, buildArgs(retryFile, listUTF16LE))
}

// invoke runs the tool with captured stdout/stderr. The child never
// inherits the parent console, keeping progress output clean. There is
// deliberately no timeout: the archive run is synchronous and runs to
// completion or failure.
func invoke(tool string, args []string) error {
	var stdout, stderr bytes.Buffer
	command := exec.Command(tool, args...) //nolint:gosec // tool path comes from the injected locator
	command.Stdout = &stdout
	command.Stderr = &stderr

	log.Info().Str("tool", tool).Str("args", strings.Join(args, " ")).Msg("running external compressor")
	runErr := command.Run()
	if runErr == nil {
		return nil
	}

	output := stdout.String() + stderr.String()
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	log.Error().Str("tool", tool).Int("exit_code", exitCode).Msg(strings.TrimSpace(output))
	return &ProcessError{Tool: tool, ExitCode: exitCode, Output: output}
}

func removeListFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Str("listfile", path).Err(err).Msg("listfile cleanup failed")
	}
}
