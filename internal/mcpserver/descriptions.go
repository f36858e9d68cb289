package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeFindUnusedAssets() string {
	return `Finds static asset files (images, icons, fonts) that no source file references.

USE WHEN:
- Cleaning up a front-end project before a release
- Reducing bundle or repository size
- Checking whether an asset can be deleted safely

INTERPRETING RESULTS:
- unused lists assets with no detectable reference; they are deletion candidates, not certainties
- possibly_used lists assets kept only because they sit under a directory referenced through
  a template literal or string concatenation (for example ` + "`/img/${name}.png`" + `)
- summary.dynamic_dirs shows those directories; review them before deleting anything below
- summary.read_errors > 0 means some sources could not be read and results may be incomplete
- strict=true reduces false negatives from names that appear inside longer identifiers

METRICS RETURNED:
- unused: path and size in bytes
- summary: total_assets, total_sources, total_unused, unused_bytes, by_strategy counts
- possibly_used: assets matched only through dynamic directories`
}

func describeDetectDynamicPaths() string {
	return `Extracts dynamically constructed asset paths from a snippet of source code.

USE WHEN:
- Explaining why an asset is reported as possibly used
- Checking how a template literal or concatenation will be interpreted

INTERPRETING RESULTS:
- base_dir is the static directory before the first dynamic part
- every asset below base_dir is treated as referenced
- an empty result means the snippet has no directory-prefixed dynamic path

METRICS RETURNED:
- patterns: base_dir, pattern (with * for dynamic parts) and kind (template or concatenation)`
}
