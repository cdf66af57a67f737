package site

// StageName is a strongly-typed identifier for a generation stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageCleanOutput   StageName = "clean_output"
	StageProcessAssets StageName = "process_assets"
	StageLoadTemplates StageName = "load_templates"
	StageLoadContent   StageName = "load_content"
	StageRenderPages   StageName = "render_pages"
)

// stageDef pairs a stage name with its executing function.
type stageDef struct {
	name StageName
	fn   stage
}

// pipeline returns the ordered stage list of one generation pass.
func pipeline() []stageDef {
	return []stageDef{
		{StageCleanOutput, stageCleanOutput},
		{StageProcessAssets, stageProcessAssets},
		{StageLoadTemplates, stageLoadTemplates},
		{StageLoadContent, stageLoadContent},
		{StageRenderPages, stageRenderPages},
	}
}
