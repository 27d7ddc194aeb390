package storage

import (
	"encoding/json"
	"errors"

	"photonlab/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeFitRun(run model.FitRun) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeFitRun(data []byte) (model.FitRun, error) {
	var run model.FitRun
	if err := json.Unmarshal(data, &run); err != nil {
		return model.FitRun{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.FitRun{}, err
	}
	return run, nil
}

func checkVersion(rec model.VersionedRecord) error {
	if rec.SchemaVersion != CurrentSchemaVersion || rec.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
