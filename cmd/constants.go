package cmd

// DefaultProjectConfigFilename describes the default config filename for a given project folder.
const DefaultProjectConfigFilename = "tenet.json"

// DefaultReproducerExtension is the file extension of reproducers written by the fuzz command.
const DefaultReproducerExtension = ".cbor"
