package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"phishlab/models"
	"phishlab/utils"
)

const (
	htmlExt      = ".html"
	pageCacheTTL = 5 * time.Minute
)

// CampaignStorage manages the files that make up a campaign: the served
// page, its metadata record, its capture log and its recipient list. The
// set of page files in campaignDir is the campaign index.
type CampaignStorage struct {
	campaignDir  string
	logDir       string
	recipientDir string
	templateDir  string

	mu    sync.Mutex // serializes log appends
	now   func() time.Time
	pages *pageCache
}

// FileError records a file that could not be removed
type FileError struct {
	File string
	Err  error
}

// DeleteReport lists what a best-effort delete removed and what it could not
type DeleteReport struct {
	Removed  []string
	Failures []FileError
}

// NewCampaignStorage creates the campaign store, creating any missing
// directories.
func NewCampaignStorage(campaignDir, logDir, recipientDir, templateDir string) (*CampaignStorage, error) {
	for _, dir := range []string{campaignDir, logDir, recipientDir, templateDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}

	return &CampaignStorage{
		campaignDir:  campaignDir,
		logDir:       logDir,
		recipientDir: recipientDir,
		templateDir:  templateDir,
		now:          time.Now,
		pages:        newPageCache(pageCacheTTL),
	}, nil
}

func (s *CampaignStorage) htmlPath(name string) string {
	return filepath.Join(s.campaignDir, name+htmlExt)
}

func (s *CampaignStorage) infoPath(name string) string {
	return filepath.Join(s.campaignDir, name+"_info.json")
}

func (s *CampaignStorage) logPath(name string) string {
	return filepath.Join(s.logDir, name+"_log.txt")
}

// Create writes a campaign page and its metadata. An existing campaign with
// the same name is overwritten.
func (s *CampaignStorage) Create(name string, source models.CampaignSource, info models.CampaignInfo) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	var body []byte
	switch {
	case source.IsUpload():
		if !strings.EqualFold(filepath.Ext(source.UploadName), htmlExt) {
			return "", ErrInvalidUpload
		}
		body = source.UploadData
	case source.Template != "":
		data, err := s.readTemplate(source.Template)
		if err != nil {
			return "", err
		}
		body = data
	default:
		return "", ErrMissingSource
	}

	if err := writeFileAtomic(s.htmlPath(name), body, 0644); err != nil {
		return "", fmt.Errorf("failed to write campaign page: %w", err)
	}
	s.pages.delete(name)

	info.Name = name
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal campaign info: %w", err)
	}
	if err := writeFileAtomic(s.infoPath(name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write campaign info: %w", err)
	}

	return name, nil
}

func (s *CampaignStorage) readTemplate(template string) ([]byte, error) {
	if err := validatePathToken(template); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.templateDir, template))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return data, nil
}

// Get returns the stored page for name
func (s *CampaignStorage) Get(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	if body, ok := s.pages.get(name); ok {
		return body, nil
	}

	data, err := os.ReadFile(s.htmlPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read campaign page: %w", err)
	}
	s.pages.set(name, string(data))
	return string(data), nil
}

// Exists reports whether a page is stored for name
func (s *CampaignStorage) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	return fileExists(s.htmlPath(name))
}

// Info returns the metadata record. Campaigns created without one yield a
// record carrying only the name.
func (s *CampaignStorage) Info(name string) (models.CampaignInfo, error) {
	info := models.CampaignInfo{Name: name}
	if err := ValidateName(name); err != nil {
		return info, err
	}

	data, err := os.ReadFile(s.infoPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return info, nil
		}
		return info, fmt.Errorf("failed to read campaign info: %w", err)
	}

	if err := json.Unmarshal(data, &info); err != nil {
		utils.Log.Warn("Campaign info for %s is malformed: %v", name, err)
		return models.CampaignInfo{Name: name}, nil
	}
	info.Name = name
	return info, nil
}

// Delete removes every file belonging to name. Missing files are skipped and
// a failure on one file does not stop the others.
func (s *CampaignStorage) Delete(name string) (*DeleteReport, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	s.pages.delete(name)

	report := &DeleteReport{}
	paths := []string{
		s.htmlPath(name),
		s.infoPath(name),
		s.logPath(name),
		recipientPath(s.recipientDir, name),
	}
	for _, path := range paths {
		err := os.Remove(path)
		switch {
		case err == nil:
			report.Removed = append(report.Removed, filepath.Base(path))
		case errors.Is(err, os.ErrNotExist):
		default:
			utils.Log.Error("Failed to delete %s: %v", path, err)
			report.Failures = append(report.Failures, FileError{File: filepath.Base(path), Err: err})
		}
	}

	return report, nil
}

// List returns the campaign names, sorted
func (s *CampaignStorage) List() ([]string, error) {
	return listStems(s.campaignDir, htmlExt)
}

// Templates returns the file names of the available page templates
func (s *CampaignStorage) Templates() ([]string, error) {
	files, err := os.ReadDir(s.templateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read template directory: %v", err)
	}

	var templates []string
	for _, file := range files {
		if file.IsDir() || strings.HasPrefix(file.Name(), ".") {
			continue
		}
		templates = append(templates, file.Name())
	}
	sort.Strings(templates)
	return templates, nil
}

func listStems(dir, ext string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %v", dir, err)
	}

	var names []string
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ext || strings.HasPrefix(file.Name(), ".") {
			continue
		}
		names = append(names, strings.TrimSuffix(file.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}
