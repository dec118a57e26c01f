package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"alfredoptarigan/cv-analyzer-web/internal/models"
	"alfredoptarigan/cv-analyzer-web/internal/repositories"
	"alfredoptarigan/cv-analyzer-web/internal/services"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Submit a CV and job description through a running proxy",
	Long: `Submit a CV and job description to the proxy endpoint of a running
cv-web server and print the normalized analysis.

The job description is read from --job-file, or from stdin when --job-file is "-".`,
	RunE: runAnalyze,
}

var (
	analyzeFile     string
	analyzeJob      string
	analyzeJobFile  string
	analyzeEndpoint string
	analyzeToken    string
	analyzeJSON     bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "cv", "c", "", "Path to the CV (PDF, DOCX or DOC)")
	analyzeCmd.Flags().StringVarP(&analyzeJob, "job", "j", "", "Job description text")
	analyzeCmd.Flags().StringVar(&analyzeJobFile, "job-file", "", "Path to a file holding the job description")
	analyzeCmd.Flags().StringVar(&analyzeEndpoint, "endpoint", "", "Proxy endpoint (defaults to PROXY_ENDPOINT)")
	analyzeCmd.Flags().StringVar(&analyzeToken, "token", "", "Bearer token forwarded to the backend")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the normalized result as JSON")

	_ = analyzeCmd.MarkFlagRequired("cv")
	analyzeCmd.MarkFlagsMutuallyExclusive("job", "job-file")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	upload, err := readLocalFile(analyzeFile)
	if err != nil {
		return err
	}

	jobDescription, err := readJobDescription(cmd.InOrStdin())
	if err != nil {
		return err
	}

	intake := services.NewIntake(services.NewFileInspector())
	if !intake.AcceptFile(upload) {
		return fmt.Errorf("unsupported file %q: expected a PDF, DOCX or DOC file", upload.Name)
	}
	intake.SetJobDescription(jobDescription)

	endpoint := analyzeEndpoint
	if endpoint == "" {
		endpoint = cfg.Backend.ProxyEndpoint
	}
	client := services.NewSubmissionClient(endpoint, cfg.Server.RequestTimeout, logger)

	store, err := repositories.NewResultStore(repositories.NewMemorySlotBackend(), logger)
	if err != nil {
		return err
	}

	result, err := intake.Submit(ctx, client, store, "cli", analyzeToken)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return errors.New(services.NoticeMissingInput)
		}
		return fmt.Errorf("%s: %w", services.NoticeAnalysisFailed, err)
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	printDashboard(out, services.NewDashboard(*result))
	return nil
}

func readLocalFile(path string) (*models.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CV: %w", err)
	}

	return &models.UploadedFile{
		Name:     filepath.Base(path),
		Size:     int64(len(data)),
		MIMEType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:     data,
	}, nil
}

func readJobDescription(stdin io.Reader) (string, error) {
	switch analyzeJobFile {
	case "":
		return analyzeJob, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(analyzeJobFile)
		if err != nil {
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		return string(data), nil
	}
}

func printDashboard(w io.Writer, d services.Dashboard) {
	fmt.Fprintf(w, "Overall score:     %3d  [%s]\n", d.Overall.Score, d.Overall.Band)
	fmt.Fprintf(w, "Keyword match:     %3d  [%s]\n", d.Keywords.Score, d.Keywords.Band)
	fmt.Fprintf(w, "ATS compatibility: %3d  [%s]\n", d.ATS.Score, d.ATS.Band)

	if d.Result.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", d.Result.Summary)
	}

	printList(w, "Grammar suggestions", d.Result.GrammarSuggestions)
	printList(w, "Matched keywords", d.Result.KeywordMatch.Matched)
	printList(w, "Missing keywords", d.Result.KeywordMatch.Missing)
	printList(w, "ATS issues", d.Result.ATSCompatibility.Issues)
	printList(w, "ATS suggestions", d.Result.ATSCompatibility.Suggestions)
	printList(w, "Technologies to learn", d.Result.ShouldLearnTechnologys)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
