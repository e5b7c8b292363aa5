package classifier

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"retail-insights/pkg/models"
)

// Artifact file names inside the model directory.
const (
	ModelFile  = "logistic_model.json"
	ScalerFile = "scaler.json"
)

// SaveArtifacts writes the classifier and scaler side by side. They must come
// from the same training run. Each file is replaced atomically.
func SaveArtifacts(dir string, m *Model, s *Scaler) error {
	if m.RunID == "" || m.RunID != s.RunID {
		return &models.ArtifactMismatchError{ModelRun: m.RunID, ScalerRun: s.RunID}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create model dir %s", dir)
	}
	if err := writeJSON(filepath.Join(dir, ScalerFile), s); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, ModelFile), m); err != nil {
		return err
	}
	clfLog.WithField("dir", dir).WithField("run_id", m.RunID).Info("Artifacts saved.")
	return nil
}

// LoadArtifacts reads both files and checks they belong together.
func LoadArtifacts(dir string) (*Model, *Scaler, error) {
	var m Model
	if err := readJSON(filepath.Join(dir, ModelFile), &m); err != nil {
		return nil, nil, err
	}
	var s Scaler
	if err := readJSON(filepath.Join(dir, ScalerFile), &s); err != nil {
		return nil, nil, err
	}
	if m.RunID == "" || m.RunID != s.RunID {
		return nil, nil, &models.ArtifactMismatchError{ModelRun: m.RunID, ScalerRun: s.RunID}
	}
	if err := checkArity(ModelFile, len(m.Coef), len(m.Features)); err != nil {
		return nil, nil, err
	}
	if err := checkArity(ScalerFile, len(s.Mean), len(s.Scale), len(s.Features)); err != nil {
		return nil, nil, err
	}
	for j, name := range FeatureNames {
		if s.Features[j] != name || m.Features[j] != name {
			return nil, nil, errors.Errorf("%s: feature %d is %q/%q, want %q", dir, j, m.Features[j], s.Features[j], name)
		}
	}
	return &m, &s, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "rename %s", tmp)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.NotFoundError{Path: path}
		}
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

// checkArity reports the first field of file whose length is not len(FeatureNames).
func checkArity(file string, lens ...int) error {
	for _, n := range lens {
		if n != len(FeatureNames) {
			return errors.Wrap(&models.FeatureShapeError{Want: len(FeatureNames), Got: n}, file)
		}
	}
	return nil
}
