/*
Package lathe is a small library of self-contained image-processing nodes for node-graph hosts.

Each node declares a typed input/output schema that a host reads to build its UI, validates its
arguments against that schema, and hands the actual work to a vetted library or external tool.

# Nodes

  - overlay_images: alpha-blends an overlay onto a base image at an anchor, a percent or a pixel offset.
  - morphology: erosion, dilation, opening, closing and gradient with square, circle or cross elements.
  - text_as_image: renders multi-line text at the largest font size that fits a transparent canvas.
  - images_to_video: assembles a directory of images into a video with ffmpeg.

# Usage

	eng, err := lathe.New()
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.Execute(ctx, domain.NodeCall{
		NodeID: "morphology",
		Args: map[string]any{
			"image":     img,
			"operation": "dilation",
			"radius":    2,
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	out := res.Outputs["image"].(image.Image)

Arguments may be given as host values (numbers as strings or JSON floats); they are normalised
against the node schema, and defaults fill whatever is missing. Validation failures wrap
domain.ErrInvalidArguments and expose the failing fields through schema.ValidationErrors.

# Hosts

The lathe binary (cmd/lathe) exposes the same engine through a CLI, an HTTP server (pkg/adapters/http)
and an MCP server (pkg/adapters/mcp). None of them is a graph executor: each request runs exactly one node.
*/
package lathe
