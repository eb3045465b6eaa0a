// Package manifest decodes YAML prompt manifests into promptreg entries.
//
// A manifest describes one entry: id, description, declared arguments and an
// ordered list of messages. Message text is stored verbatim; it is never rendered.
//
//	id: read_design_strategy
//	description: Best practices for reading Figma designs
//	messages:
//	  - role: assistant
//	    content:
//	      type: text
//	      text: |
//	        When reading Figma designs, ...
package manifest
