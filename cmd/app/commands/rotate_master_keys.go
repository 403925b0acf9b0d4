package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/parquet-keytools/internal/crypto/domain"
	cryptoUseCase "github.com/allisson/parquet-keytools/internal/crypto/usecase"
)

type rotationFailureOutput struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type rotationOutput struct {
	Folder       string                  `json:"folder"`
	RotatedFiles []string                `json:"rotated_files"`
	Failures     []rotationFailureOutput `json:"failures"`
}

// RunRotateMasterKeys re-wraps the keys of every file in folder under the latest
// master key versions and prints a report. Partial failures are reported and
// returned as an error so the process exits non-zero.
func RunRotateMasterKeys(
	ctx context.Context,
	rotationUseCase cryptoUseCase.RotationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	folder, accessToken, format string,
) error {
	if folder == "" {
		return fmt.Errorf("--folder is required")
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("rotating master keys", slog.String("folder", folder))

	result, err := rotationUseCase.RotateMasterKeys(ctx, folder, accessToken)
	if result == nil || (err != nil && !errors.Is(err, cryptoDomain.ErrRotationFailed)) {
		return err
	}

	if printErr := printRotationResult(writer, result, format); printErr != nil {
		return errors.Join(err, printErr)
	}
	return err
}

func printRotationResult(writer io.Writer, result *cryptoDomain.RotationResult, format string) error {
	output := rotationOutput{
		Folder:       result.Folder,
		RotatedFiles: append([]string{}, result.RotatedFiles...),
		Failures:     make([]rotationFailureOutput, 0, len(result.Failures)),
	}
	for _, failure := range result.Failures {
		output.Failures = append(output.Failures, rotationFailureOutput{
			File:  failure.File,
			Error: failure.Err.Error(),
		})
	}

	if format == FormatJSON {
		return writeJSON(writer, output)
	}

	_, _ = fmt.Fprintf(writer, "Folder: %s\n", output.Folder)
	_, _ = fmt.Fprintf(writer, "Rotated files: %d\n", len(output.RotatedFiles))
	for _, file := range output.RotatedFiles {
		_, _ = fmt.Fprintf(writer, "  %s\n", file)
	}
	if len(output.Failures) > 0 {
		_, _ = fmt.Fprintf(writer, "Failed files: %d\n", len(output.Failures))
		for _, failure := range output.Failures {
			_, _ = fmt.Fprintf(writer, "  %s: %s\n", failure.File, failure.Error)
		}
	}
	return nil
}
