package schema

import (
	"fmt"

	"github.com/floodcast/segconf/internal/document"
)

// defaultsYAML is the built-in base layer of every run. Override documents
// and command-line key=value pairs are merged on top of it before reference
// resolution.
const defaultsYAML = `
model:
  model_name: deeplabv3_resnet101
  dropout: false
  prob: false
  pretrained: true
  state_dict_path: ""

tiling:
  tiling_data_dir: ${general.work_dir}/patches
  train_val_percent:
    trn: 0.7
    val: 0.3
  patch_size: 256
  min_annot_perc: 0
  patch_stride: 256
  use_stratification: false
  write_mode: raise_exists

training:
  num_gpus: 0
  batch_size: 8
  eval_batch_size: 0
  learning_rate: 0.0001
  min_epochs: 1
  max_epochs: 100
  num_workers: 4
  max_used_ram: 95
  max_used_perc: 15
  state_dict_path: ""
  batch_metrics: 1
  compute_sampler_weights: false

loss:
  loss_name: CrossEntropy
  params:
    ignore_index: ${dataset.ignore_index}

optimizer:
  optimizer_name: adam
  params:
    lr: ${training.learning_rate}
    amsgrad: false

scheduler:
  scheduler_name: ReduceLROnPlateau
  mode: min
  params:
    monitor: val_loss
    factor: 0.1
    patience: 10

callbacks:
  early_stopping:
    class_name: EarlyStopping
    params:
      monitor: ${scheduler.params.monitor}
      mode: ${scheduler.mode}
      patience: 20
  model_checkpoint:
    class_name: ModelCheckpoint
    params:
      monitor: ${scheduler.params.monitor}
      mode: ${scheduler.mode}
      save_top_k: 1

dataset:
  raw_data_dir: ${general.work_dir}/data
  raw_data_csv: ${general.work_dir}/data/images.csv
  bands: [1, 2, 3]
  classes_dict:
    WATER: 1
  class_weights: []
  ignore_index: -1

augmentation:
  rotate_limit: 45
  rotate_prob: 0.5
  hflip_prob: 0.5
  normalization:
    mean: []
    std: []
  scale_data: [0, 1]

inference:
  raw_data_csv: ${dataset.raw_data_csv}
  state_dict_path: ""
  chunk_size: 512
  max_used_ram: 25
  max_used_perc: 25
  heatmap_threshold: 0.3
  heatmaps: false
  ras2vec: false

visualization:
  vis_at_train: false
  vis_at_evaluation: false
  vis_at_checkpoint: false
  vis_at_ckpt_min_ep_diff: 1
  vis_at_ckpt_dataset: val
  vis_batch_range: []
  colormap_file: ""
  heatmaps: false
  grid: false

tracker:
  uri: ${general.work_dir}/mlruns
  run_name: ${general.project_name}

general:
  project_name: flood-segmentation
  workspace: ${runtime.job_name}
  min_epochs: ${training.min_epochs}
  max_epochs: ${training.max_epochs}
  work_dir: ${runtime.work_dir}
  save_weights_dir: ${runtime.work_dir}/runs/${runtime.timestamp}
  config_name: defaults
`

// Defaults parses the built-in base document.
func Defaults() (document.Map, error) {
	tree, err := document.Parse([]byte(defaultsYAML))
	if err != nil {
		return nil, fmt.Errorf("parse built-in defaults: %w", err)
	}
	return tree, nil
}
