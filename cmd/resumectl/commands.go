package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"resume-generator/internal/bootstrap"
	"resume-generator/internal/experiences"
	"resume-generator/internal/generations"
	"resume-generator/internal/shared/config"
	"resume-generator/internal/shared/storage/db"
	"resume-generator/internal/shared/storage/object"
	"resume-generator/resume/model"
	"resume-generator/resume/render"
)

// --- seed ---

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load experience records for a user",
	Long: `Load already-validated experience records for a user from a YAML or
JSON file. With EXPERIENCE_STORE=memory the records only live for this process;
use sqlite or pg to keep them.

Examples:
  resumectl seed --user user_12345678 --file ./experience.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		file, _ := cmd.Flags().GetString("file")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := config.Load()
		if cfg.ExperienceStore == "memory" {
			fmt.Fprintln(os.Stderr, "warning: EXPERIENCE_STORE=memory, records are discarded on exit")
		}
		app, err := bootstrap.Build(ctx, cfg, db.DefaultWorkerOptions())
		if err != nil {
			return err
		}
		defer app.Close()

		snap, err := seed(ctx, app.Experiences, user, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d records (%d eligible) fingerprint=%s\n", len(snap.Records), snap.Eligible, snap.Fingerprint)
		return nil
	},
}

// --- generate ---

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a resume for a job description",
	Long: `Run the generation pipeline and print every progress event as a JSON
line. On success the source document and PDF are copied to --out.

Examples:
  resumectl generate --user user_12345678 --jd ./posting.md --format word --out ./out
  resumectl generate --user user_12345678 --seed ./experience.yaml --jd - < posting.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		jdPath, _ := cmd.Flags().GetString("jd")
		rawFormat, _ := cmd.Flags().GetString("format")
		modelID, _ := cmd.Flags().GetString("model")
		outDir, _ := cmd.Flags().GetString("out")
		seedFile, _ := cmd.Flags().GetString("seed")

		format, err := render.ParseFormat(rawFormat)
		if err != nil {
			return err
		}
		jd, err := readInput(jdPath, cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading job description: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap.Build(ctx, config.Load(), db.DefaultWorkerOptions())
		if err != nil {
			return err
		}
		defer app.Close()

		if seedFile != "" {
			if _, err := seed(ctx, app.Experiences, user, seedFile); err != nil {
				return err
			}
		}

		req := generations.Request{UserID: user, JobDescription: jd, Format: format, ModelID: modelID}
		last, err := streamEvents(cmd.OutOrStdout(), app.Orchestrator.Run(ctx, req))
		if err != nil {
			return err
		}
		switch last.Stage {
		case generations.StageDone:
		case generations.StageError:
			return fmt.Errorf("%s: %s", last.Code, last.Message)
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return generations.ErrTimeout
		}

		for _, ref := range []string{last.Result.SourceRef, last.Result.PDFRef} {
			dst, err := copyArtifact(ctx, app.Store, ref, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", dst)
		}
		return nil
	},
}

// --- render ---

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a draft JSON file without calling a model",
	Long: `Render a {"draft": ..., "profile": ...} JSON document to the source
format and, unless --source-only is set, convert it to PDF.

Examples:
  resumectl render --doc ./draft.json --format latex --out ./out
  resumectl render --doc ./draft.json --format word --source-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		docPath, _ := cmd.Flags().GetString("doc")
		rawFormat, _ := cmd.Flags().GetString("format")
		outDir, _ := cmd.Flags().GetString("out")
		sourceOnly, _ := cmd.Flags().GetBool("source-only")

		format, err := render.ParseFormat(rawFormat)
		if err != nil {
			return err
		}
		doc, err := loadDocument(docPath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var renderer *render.Renderer
		if !sourceOnly {
			renderer = render.New(config.Load().Pipeline)
		}
		written, err := renderToDir(ctx, renderer, doc, format, outDir)
		if err != nil {
			return err
		}
		for _, p := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().String("user", "", "user id owning the records")
	seedCmd.Flags().String("file", "", "YAML or JSON file with a list of records")
	_ = seedCmd.MarkFlagRequired("user")
	_ = seedCmd.MarkFlagRequired("file")

	generateCmd.Flags().String("user", "", "user id to generate for")
	generateCmd.Flags().String("jd", "-", "job description file, - for stdin")
	generateCmd.Flags().String("format", string(render.FormatLatex), "latex or word")
	generateCmd.Flags().String("model", "", "model id, defaults to LLM_MODEL")
	generateCmd.Flags().String("out", "./out", "directory for the generated files")
	generateCmd.Flags().String("seed", "", "records file to seed before generating")
	_ = generateCmd.MarkFlagRequired("user")

	renderCmd.Flags().String("doc", "", "draft document JSON file")
	renderCmd.Flags().String("format", string(render.FormatLatex), "latex or word")
	renderCmd.Flags().String("out", "./out", "directory for the rendered files")
	renderCmd.Flags().Bool("source-only", false, "write the source document without converting to PDF")
	_ = renderCmd.MarkFlagRequired("doc")
}

// loadInputs reads records from path. Files ending in .json are decoded as
// JSON, everything else as YAML.
func loadInputs(path string) ([]experiences.Input, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	var inputs []experiences.Input
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &inputs)
	} else {
		err = yaml.Unmarshal(raw, &inputs)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding records %s: %w", path, err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no records in %s", path)
	}
	return inputs, nil
}

func seed(ctx context.Context, svc *experiences.Service, user, path string) (experiences.Snapshot, error) {
	inputs, err := loadInputs(path)
	if err != nil {
		return experiences.Snapshot{}, err
	}
	if _, err := svc.Add(ctx, user, inputs); err != nil {
		return experiences.Snapshot{}, fmt.Errorf("seeding records: %w", err)
	}
	return svc.Snapshot(ctx, user)
}

func readInput(path string, stdin io.Reader) (string, error) {
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", fmt.Errorf("empty input")
	}
	return string(raw), nil
}

// streamEvents writes each event as a JSON line and returns the last one.
func streamEvents(w io.Writer, events <-chan generations.Event) (generations.Event, error) {
	enc := json.NewEncoder(w)
	var last generations.Event
	for ev := range events {
		last = ev
		if ev.Result != nil {
			// Keep the line short; the draft is in the written files.
			trimmed := *ev.Result
			trimmed.Draft = model.Draft{Language: trimmed.Draft.Language}
			ev.Result = &trimmed
		}
		if err := enc.Encode(ev); err != nil {
			return last, err
		}
	}
	return last, nil
}

func copyArtifact(ctx context.Context, store object.Store, ref, outDir string) (string, error) {
	rc, err := store.Open(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", ref, err)
	}
	defer rc.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(outDir, path.Base(ref))
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return "", err
	}
	return dst, f.Close()
}

type documentFile struct {
	Draft   model.Draft   `json:"draft"`
	Profile model.Profile `json:"profile"`
}

func loadDocument(path string) (render.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return render.Document{}, fmt.Errorf("reading document: %w", err)
	}
	var doc documentFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return render.Document{}, fmt.Errorf("decoding document %s: %w", path, err)
	}
	if err := doc.Draft.Validate(); err != nil {
		return render.Document{}, fmt.Errorf("invalid draft: %w", err)
	}
	return render.Document{Draft: doc.Draft, Profile: doc.Profile}, nil
}

// renderToDir writes the rendered files to outDir. A nil renderer writes the
// source document only.
func renderToDir(ctx context.Context, renderer *render.Renderer, doc render.Document, format render.Format, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	files := map[string][]byte{}
	if renderer == nil {
		src, err := render.Source(doc, format)
		if err != nil {
			return nil, err
		}
		files[format.SourceName()] = src
	} else {
		out, err := renderer.Render(ctx, doc, format)
		if err != nil {
			return nil, err
		}
		files[out.SourceName] = out.Source
		files[render.PDFName] = out.PDF
	}

	var written []string
	for _, name := range []string{format.SourceName(), render.PDFName} {
		data, ok := files[name]
		if !ok {
			continue
		}
		dst := filepath.Join(outDir, name)
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return written, err
		}
		written = append(written, dst)
	}
	return written, nil
}
