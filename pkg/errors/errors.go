// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 画像読み込み・学習・推論・会計計算で発生するエラーを構造化された型として表現し、
// 致命的でない事象は警告として Warn 経由でロガーに流します。
package errors

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = defaultWarningHandler
)

// defaultWarningHandler は zerolog のグローバルロガーへ警告を構造化ログとして出力します。
func defaultWarningHandler(w error) {
	event := zlog.Warn()
	if m, ok := w.(zerolog.LogObjectMarshaler); ok {
		event = event.Object("warning", m)
	}
	event.Msg(w.Error())
}

// SetWarningHandler は警告ハンドラを差し替え、以前のハンドラを返します。
// nil を渡すとデフォルトの zerolog ハンドラに戻ります。
//
// 例:
//
//	prev := errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
//	defer errors.SetWarningHandler(prev)
func SetWarningHandler(handler func(w error)) func(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	prev := warningHandler
	if handler == nil {
		handler = defaultWarningHandler
	}
	warningHandler = handler
	return prev
}

// Warn は警告を発生させます。
func Warn(w error) {
	warningMutex.Lock()
	handler := warningHandler
	warningMutex.Unlock()

	if handler != nil && w != nil {
		handler(w)
	}
}

// ===========================================================================
//
//	データ読み込み・会計処理の警告型
//
// ===========================================================================

// DataConversionWarning はデータの型が暗黙的に変換された場合に発生する警告です。
// 例えば、カラー入力が期待されているのにグレースケール画像が読み込まれた場合など。
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning は新しいDataConversionWarningを作成します。
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// ImageDecodeWarning は画像ファイルをデコードできずスキップした場合の警告です。
type ImageDecodeWarning struct {
	Path string
	Err  error
}

func (w *ImageDecodeWarning) Error() string {
	return fmt.Sprintf("skipping %s: cannot decode image: %v", w.Path, w.Err)
}

func (w *ImageDecodeWarning) Unwrap() error {
	return w.Err
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ImageDecodeWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("path", w.Path).
		AnErr("cause", w.Err).
		Str("type", "ImageDecodeWarning")
}

// NewImageDecodeWarning は新しいImageDecodeWarningを作成します。
func NewImageDecodeWarning(path string, err error) *ImageDecodeWarning {
	return &ImageDecodeWarning{Path: path, Err: err}
}

// MissingClassDirWarning はクラスのサブディレクトリが存在しない場合の警告です。
// そのクラスのサンプル数は0になりますが、読み込み自体は継続します。
type MissingClassDirWarning struct {
	Class string
	Dir   string
}

func (w *MissingClassDirWarning) Error() string {
	return fmt.Sprintf("directory %q for class %q not found; class contributes no samples", w.Dir, w.Class)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *MissingClassDirWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("class", w.Class).
		Str("dir", w.Dir).
		Str("type", "MissingClassDirWarning")
}

// NewMissingClassDirWarning は新しいMissingClassDirWarningを作成します。
func NewMissingClassDirWarning(class, dir string) *MissingClassDirWarning {
	return &MissingClassDirWarning{Class: class, Dir: dir}
}

// UnpricedItemWarning は価格表に存在しない商品が注文に含まれていた場合の警告です。
// この商品の金額は0として計算されます。
type UnpricedItemWarning struct {
	Item     string
	Quantity int
}

func (w *UnpricedItemWarning) Error() string {
	return fmt.Sprintf("no price for item %q (quantity %d); it contributes 0 to the total", w.Item, w.Quantity)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UnpricedItemWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("item", w.Item).
		Int("quantity", w.Quantity).
		Str("type", "UnpricedItemWarning")
}

// NewUnpricedItemWarning は新しいUnpricedItemWarningを作成します。
func NewUnpricedItemWarning(item string, quantity int) *UnpricedItemWarning {
	return &UnpricedItemWarning{Item: item, Quantity: quantity}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Save` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("petclassifier: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// ModelNotFoundError は推論時に指定されたモデルファイルが存在しない場合のエラーです。
type ModelNotFoundError struct {
	Path string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("petclassifier: model not found: %s", e.Path)
}

// Is は ErrModelNotFound との比較を可能にします。
func (e *ModelNotFoundError) Is(target error) bool {
	return target == ErrModelNotFound
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ModelNotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("type", "ModelNotFoundError")
}

// NewModelNotFoundError は新しいModelNotFoundErrorを作成し、スタックトレースを付与します。
func NewModelNotFoundError(path string) error {
	return errors.WithStack(&ModelNotFoundError{Path: path})
}

// ClassMismatchError は設定されたクラス一覧と保存済みモデルのクラス一覧が一致しない場合のエラーです。
type ClassMismatchError struct {
	Expected []string
	Got      []string
}

func (e *ClassMismatchError) Error() string {
	return fmt.Sprintf("petclassifier: class list mismatch: configured %v, model was trained with %v", e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ClassMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Strs("expected", e.Expected).
		Strs("got", e.Got).
		Str("type", "ClassMismatchError")
}

// NewClassMismatchError は新しいClassMismatchErrorを作成し、スタックトレースを付与します。
func NewClassMismatchError(expected, got []string) error {
	return errors.WithStack(&ClassMismatchError{Expected: expected, Got: got})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("petclassifier: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("petclassifier: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ModelError はモデルの保存・読み込み・学習に関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("petclassifier: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("petclassifier: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// 学習中の損失が NaN や Inf になった場合に返されます。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "categorical_crossentropy"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生したエポック番号
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("petclassifier: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return errors.WithStack(err)
}

// InputShapeError は入力画像の形状がモデルの入力形状と異なる場合のエラーです。
type InputShapeError struct {
	Phase    string // "training", "prediction"
	Expected []int  // 期待される形状 (height, width, channels)
	Got      []int  // 実際の形状
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("petclassifier: input shape mismatch in %s phase. Expected shape %v, got %v",
		e.Phase, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InputShapeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("phase", e.Phase).
		Ints("expected", e.Expected).
		Ints("got", e.Got).
		Str("type", "InputShapeError")
}

// NewInputShapeError は新しいInputShapeErrorを作成します。
func NewInputShapeError(phase string, expected, got []int) error {
	err := &InputShapeError{
		Phase:    phase,
		Expected: expected,
		Got:      got,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrEmptyDataset は画像ディレクトリから1枚も読み込めなかった場合のエラーです。
	ErrEmptyDataset = New("no images loaded from dataset directory")

	// ErrModelNotFound はモデルファイルが存在しないことを表す番兵エラーです。
	ErrModelNotFound = New("model not found")
)
