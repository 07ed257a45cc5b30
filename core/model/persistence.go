package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// SaveModel はモデルをファイルに保存する
//
// 同じディレクトリに一時ファイルを書き出してから rename するため、
// 既存のファイルは書き込みが完了した時点で丸ごと置き換わる。
//
// パラメータ:
//   - model: 保存するモデル（gobでエンコード可能な構造体）
//   - filename: 保存先のファイルパス
//
// 戻り値:
//   - error: 保存に失敗した場合のエラー
//
// 使用例:
//
//	err := model.SaveModel(artifact, "cat_dog_classifier.gob")
func SaveModel(model interface{}, filename string) (err error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewModelError("SaveModel", "create directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return errors.NewModelError("SaveModel", "create file", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := SaveModelToWriter(model, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.NewModelError("SaveModel", "close file", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return errors.NewModelError("SaveModel", "replace file", err)
	}
	return nil
}

// LoadModel はファイルからモデルを読み込む
//
// ファイルが存在しない場合は ModelNotFoundError を返す。
//
// パラメータ:
//   - model: 読み込み先のモデル（ポインタ）
//   - filename: 読み込み元のファイルパス
//
// 戻り値:
//   - error: 読み込みに失敗した場合のエラー
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewModelNotFoundError(filename)
		}
		return errors.NewModelError("LoadModel", "open file", err)
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(model); err != nil {
		return errors.NewModelError("SaveModel", "encode model", err)
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(model); err != nil {
		return errors.NewModelError("LoadModel", "decode model", err)
	}
	return nil
}
