package revlens

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var UploadReportCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload the UX report to GitHub Pages",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat("report.html"); os.IsNotExist(err) {
			log.Fatalf("report.html not found. Run 'generate-report' first.")
		}
		if _, err := os.Stat("report.md"); os.IsNotExist(err) {
			log.Fatalf("report.md not found. Run 'generate-report' first.")
		}

		if err := publishToGitHubPages(); err != nil {
			log.Fatalf("Failed to upload to GitHub Pages: %v", err)
		}
		log.Println("Successfully uploaded to GitHub Pages")
	},
}

// runGit runs a git command in dir, an empty dir meaning the current one
func runGit(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %s failed: %v\nOutput: %s", strings.Join(args, " "), err, string(output))
	}
	return nil
}

// gitOutput runs a git command in dir and returns its trimmed stdout
func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %v", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// publishToGitHubPages clones the origin remote into a temp directory,
// places both report files on the gh-pages branch as the site index, and
// pushes.
func publishToGitHubPages() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %v", err)
	}

	tempDir := filepath.Join(cwd, "gh-pages-temp")
	if err := os.RemoveAll(tempDir); err != nil {
		return fmt.Errorf("failed to remove existing temp directory: %v", err)
	}

	if _, err := gitOutput("", "rev-parse", "--git-dir"); err != nil {
		return fmt.Errorf("not in a git repository")
	}
	remoteURL, err := gitOutput("", "config", "--get", "remote.origin.url")
	if err != nil {
		return fmt.Errorf("failed to get remote URL: %v", err)
	}

	log.Printf("Cloning repository for GitHub Pages...")
	if err := runGit("", "clone", remoteURL, tempDir); err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			log.Printf("Warning: failed to remove temp directory: %v", err)
		}
	}()

	if err := checkoutPagesBranch(tempDir); err != nil {
		return err
	}

	// Publish the HTML as the site index, keeping the markdown next to it
	copies := map[string]string{
		"report.html": "index.html",
		"report.md":   "index.md",
	}
	for source, dest := range copies {
		data, err := os.ReadFile(filepath.Join(cwd, source))
		if err != nil {
			return fmt.Errorf("failed to read %s: %v", source, err)
		}
		if err := os.WriteFile(filepath.Join(tempDir, dest), data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %v", dest, err)
		}
	}

	if err := runGit(tempDir, "add", "index.html", "index.md"); err != nil {
		return err
	}
	status, err := gitOutput(tempDir, "status", "--porcelain")
	if err != nil {
		return err
	}
	if status == "" {
		log.Println("No changes to commit")
		return nil
	}

	commitMessage := fmt.Sprintf("Update UX report - %s", time.Now().Format("2006-01-02 15:04:05"))
	if err := runGit(tempDir, "commit", "-m", commitMessage); err != nil {
		return err
	}
	return runGit(tempDir, "push", "origin", "gh-pages")
}

// checkoutPagesBranch switches the clone to gh-pages, creating an orphan
// branch when the remote has none.
func checkoutPagesBranch(dir string) error {
	if _, err := gitOutput(dir, "show-ref", "--verify", "--quiet", "refs/remotes/origin/gh-pages"); err == nil {
		if runGit(dir, "checkout", "gh-pages") == nil {
			return nil
		}
		if err := runGit(dir, "checkout", "-b", "gh-pages", "origin/gh-pages"); err != nil {
			return fmt.Errorf("failed to checkout gh-pages branch: %v", err)
		}
		return nil
	}

	if err := runGit(dir, "checkout", "--orphan", "gh-pages"); err != nil {
		return fmt.Errorf("failed to create gh-pages branch: %v", err)
	}
	if err := runGit(dir, "rm", "-rf", "."); err != nil {
		// Fails when the orphan branch has no files, which is okay
		log.Printf("Warning: failed to remove files from orphan branch: %v", err)
	}
	return nil
}
