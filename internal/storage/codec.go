package storage

import (
	"encoding/json"
	"errors"

	"hivsim/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeBatch(batch model.BatchRecord) ([]byte, error) {
	return json.Marshal(batch)
}

func DecodeBatch(data []byte) (model.BatchRecord, error) {
	var batch model.BatchRecord
	if err := json.Unmarshal(data, &batch); err != nil {
		return model.BatchRecord{}, err
	}
	if err := checkVersion(batch.VersionedRecord); err != nil {
		return model.BatchRecord{}, err
	}
	return batch, nil
}

func EncodeSnapshots(snapshots []model.IndicatorSnapshot) ([]byte, error) {
	return json.Marshal(snapshots)
}

func DecodeSnapshots(data []byte) ([]model.IndicatorSnapshot, error) {
	var snapshots []model.IndicatorSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func checkVersion(record model.VersionedRecord) error {
	if record.SchemaVersion != CurrentSchemaVersion || record.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

// Stamp sets the current schema/codec versions on a record before save.
func Stamp(record *model.VersionedRecord) {
	record.SchemaVersion = CurrentSchemaVersion
	record.CodecVersion = CurrentCodecVersion
}
