package domain

// DefaultEntityColor is applied to entities created without an explicit color.
const DefaultEntityColor = "#FFD700"

// DefaultMarkerIcon is applied to markers created without an explicit icon.
const DefaultMarkerIcon = "⭐"

// DuplicateMarkerIcon marks the synthetic marker baked by entity duplication.
const DuplicateMarkerIcon = "📋"

// PathSeparator splits a field name into path segments.
const PathSeparator = "."
