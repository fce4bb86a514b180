package pipeline

import (
	"fmt"
	"os"
)

// writeTemporalConfig generates the hyperparameter file consumed by the
// temporal trainer. Temporal resolution tracks roughly half the frame
// count, floored at 10.
func writeTemporalConfig(path string, frameCount, iterations int) error {
	temporalResolution := frameCount / 2
	if temporalResolution < 10 {
		temporalResolution = 10
	}

	content := fmt.Sprintf(`ModelHiddenParams = dict(
    kplanes_config = dict(
        grid_dimensions = 2,
        input_coordinate_dim = 4,
        output_coordinate_dim = 32,
        resolution = [64, 64, 64, %d]
    ),
    multires = [1, 2, 4, 8],
    defor_depth = 1,
    net_width = 64,
    plane_tv_weight = 0.0001,
    time_smoothness_weight = 0.01,
    l1_time_planes = 0.0001,
    no_do = True,
    no_dshs = True,
)

OptimizationParams = dict(
    dataloader = True,
    iterations = %d,
    coarse_iterations = 3000,
    batch_size = 1,
    densify_until_iter = 15000,
)
`, temporalResolution, iterations)

	return os.WriteFile(path, []byte(content), 0o644)
}
