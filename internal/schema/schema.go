// Package schema defines the typed experiment-configuration sections for the
// flood-segmentation pipeline, decodes a resolved document tree into them,
// and validates field types, ranges, and cross-field invariants.
package schema

// Config is the fully-typed view of a resolved configuration tree. It is
// constructed once per run and treated as read-only afterwards.
type Config struct {
	Model         ModelConfig               `mapstructure:"model"`
	Tiling        TilingConfig              `mapstructure:"tiling"`
	Training      TrainingConfig            `mapstructure:"training"`
	Loss          LossConfig                `mapstructure:"loss"`
	Optimizer     OptimizerConfig           `mapstructure:"optimizer"`
	Scheduler     SchedulerConfig           `mapstructure:"scheduler"`
	Callbacks     map[string]CallbackConfig `mapstructure:"callbacks" validate:"dive"`
	Dataset       DatasetConfig             `mapstructure:"dataset"`
	Augmentation  AugmentationConfig        `mapstructure:"augmentation"`
	Inference     InferenceConfig           `mapstructure:"inference"`
	Visualization VisualizationConfig       `mapstructure:"visualization"`
	Tracker       TrackerConfig             `mapstructure:"tracker"`
	General       GeneralConfig             `mapstructure:"general"`
}

// ModelConfig selects the segmentation model implementation.
type ModelConfig struct {
	ModelName     string `mapstructure:"model_name" validate:"required"`
	Dropout       bool   `mapstructure:"dropout"`
	Prob          bool   `mapstructure:"prob"`
	Pretrained    bool   `mapstructure:"pretrained"`
	StateDictPath string `mapstructure:"state_dict_path"`
}

// SplitPercent is the train/validation split. The two fractions must sum
// to 1.0.
type SplitPercent struct {
	Trn float64 `mapstructure:"trn" validate:"gte=0,lte=1"`
	Val float64 `mapstructure:"val" validate:"gte=0,lte=1"`
}

// Tiling write modes for an output directory that may already exist.
const (
	WriteModeRaiseExists = "raise_exists"
	WriteModeOverwrite   = "overwrite"
	WriteModeAppend      = "append"
)

// TilingConfig controls how source imagery is cut into training patches.
type TilingConfig struct {
	TilingDataDir     string       `mapstructure:"tiling_data_dir"`
	TrainValPercent   SplitPercent `mapstructure:"train_val_percent"`
	PatchSize         int          `mapstructure:"patch_size" validate:"gt=0"`
	MinAnnotPerc      float64      `mapstructure:"min_annot_perc" validate:"gte=0,lte=100"`
	PatchStride       int          `mapstructure:"patch_stride" validate:"gt=0"`
	UseStratification bool         `mapstructure:"use_stratification"`
	WriteMode         string       `mapstructure:"write_mode" validate:"oneof=raise_exists overwrite append"`
}

// TrainingConfig holds training-loop hyperparameters and resource ceilings.
// EvalBatchSize of 0 means "use BatchSize".
type TrainingConfig struct {
	NumGPUs               int     `mapstructure:"num_gpus" validate:"gte=0"`
	BatchSize             int     `mapstructure:"batch_size" validate:"gt=0"`
	EvalBatchSize         int     `mapstructure:"eval_batch_size" validate:"gte=0"`
	LearningRate          float64 `mapstructure:"learning_rate" validate:"gt=0"`
	MinEpochs             int     `mapstructure:"min_epochs" validate:"gt=0"`
	MaxEpochs             int     `mapstructure:"max_epochs" validate:"gt=0"`
	NumWorkers            int     `mapstructure:"num_workers" validate:"gte=0"`
	MaxUsedRAM            float64 `mapstructure:"max_used_ram" validate:"gte=0,lte=100"`
	MaxUsedPerc           float64 `mapstructure:"max_used_perc" validate:"gte=0,lte=100"`
	StateDictPath         string  `mapstructure:"state_dict_path"`
	BatchMetrics          int     `mapstructure:"batch_metrics" validate:"gte=0"`
	ComputeSamplerWeights bool    `mapstructure:"compute_sampler_weights"`
}

// LossConfig names the loss implementation and its parameters.
type LossConfig struct {
	LossName string         `mapstructure:"loss_name" validate:"required"`
	Params   map[string]any `mapstructure:"params"`
}

// OptimizerConfig names the optimizer and its parameters. The learning rate
// parameter conventionally references ${training.learning_rate}.
type OptimizerConfig struct {
	OptimizerName string         `mapstructure:"optimizer_name" validate:"required"`
	Params        map[string]any `mapstructure:"params"`
}

// SchedulerConfig names the LR scheduler; its monitor parameter commonly
// references another section's value.
type SchedulerConfig struct {
	SchedulerName string         `mapstructure:"scheduler_name" validate:"required"`
	Mode          string         `mapstructure:"mode" validate:"omitempty,oneof=min max"`
	Params        map[string]any `mapstructure:"params"`
}

// CallbackConfig is one named training callback, e.g. early_stopping or
// model_checkpoint.
type CallbackConfig struct {
	ClassName string         `mapstructure:"class_name" validate:"required"`
	Params    map[string]any `mapstructure:"params"`
}

// DatasetConfig locates the raw imagery and defines the label space.
type DatasetConfig struct {
	RawDataDir   string         `mapstructure:"raw_data_dir"`
	RawDataCSV   string         `mapstructure:"raw_data_csv"`
	Bands        []int          `mapstructure:"bands" validate:"min=1,dive,gt=0"`
	ClassesDict  map[string]int `mapstructure:"classes_dict" validate:"min=1"`
	ClassWeights []float64      `mapstructure:"class_weights" validate:"omitempty,dive,gte=0"`
	IgnoreIndex  int            `mapstructure:"ignore_index"`
}

// NormalizationConfig carries per-band normalization statistics.
type NormalizationConfig struct {
	Mean []float64 `mapstructure:"mean"`
	Std  []float64 `mapstructure:"std"`
}

// AugmentationConfig holds probabilistic transform parameters applied
// during training.
type AugmentationConfig struct {
	RotateLimit   float64             `mapstructure:"rotate_limit" validate:"gte=0,lte=180"`
	RotateProb    float64             `mapstructure:"rotate_prob" validate:"gte=0,lte=1"`
	HFlipProb     float64             `mapstructure:"hflip_prob" validate:"gte=0,lte=1"`
	Normalization NormalizationConfig `mapstructure:"normalization"`
	ScaleData     []float64           `mapstructure:"scale_data" validate:"omitempty,len=2"`
}

// InferenceConfig controls windowed prediction over full rasters.
type InferenceConfig struct {
	RawDataCSV       string  `mapstructure:"raw_data_csv"`
	StateDictPath    string  `mapstructure:"state_dict_path"`
	ChunkSize        int     `mapstructure:"chunk_size" validate:"gt=0"`
	MaxUsedRAM       float64 `mapstructure:"max_used_ram" validate:"gte=0,lte=100"`
	MaxUsedPerc      float64 `mapstructure:"max_used_perc" validate:"gte=0,lte=100"`
	HeatmapThreshold float64 `mapstructure:"heatmap_threshold" validate:"gte=0,lte=1"`
	Heatmaps         bool    `mapstructure:"heatmaps"`
	Ras2Vec          bool    `mapstructure:"ras2vec"`
}

// VisualizationConfig controls sample visualization during training,
// evaluation, and checkpointing. VisBatchRange selects the batches to
// visualize as [min_batch, max_batch, increment]; empty disables it.
type VisualizationConfig struct {
	VisAtTrain         bool   `mapstructure:"vis_at_train"`
	VisAtEvaluation    bool   `mapstructure:"vis_at_evaluation"`
	VisAtCheckpoint    bool   `mapstructure:"vis_at_checkpoint"`
	VisAtCkptMinEpDiff int    `mapstructure:"vis_at_ckpt_min_ep_diff" validate:"gte=0"`
	VisAtCkptDataset   string `mapstructure:"vis_at_ckpt_dataset" validate:"omitempty,oneof=trn val tst"`
	VisBatchRange      []int  `mapstructure:"vis_batch_range" validate:"omitempty,len=3,dive,gte=0"`
	ColormapFile       string `mapstructure:"colormap_file"`
	Heatmaps           bool   `mapstructure:"heatmaps"`
	Grid               bool   `mapstructure:"grid"`
}

// TrackerConfig points experiment logging at an external tracking store.
type TrackerConfig struct {
	URI     string `mapstructure:"uri"`
	RunName string `mapstructure:"run_name"`
}

// GeneralConfig carries run metadata and resolved runtime paths.
type GeneralConfig struct {
	ProjectName    string `mapstructure:"project_name" validate:"required"`
	Workspace      string `mapstructure:"workspace"`
	MinEpochs      int    `mapstructure:"min_epochs" validate:"gt=0"`
	MaxEpochs      int    `mapstructure:"max_epochs" validate:"gt=0"`
	WorkDir        string `mapstructure:"work_dir"`
	SaveWeightsDir string `mapstructure:"save_weights_dir"`
	ConfigName     string `mapstructure:"config_name"`
}
